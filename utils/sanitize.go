package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText strips any HTML markup from free-form text fields. Recipes are
// plain text, so nothing tag-shaped survives. Entities introduced by the
// stripper are unescaped again so input like "pasta & fagioli" round-trips.
func SanitizeText(input string) string {
	return html.UnescapeString(sanitizer.Sanitize(input))
}
