package models

import "strings"

// TagSuggestion pairs a suggested tag with its display emoji.
type TagSuggestion struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// DefaultTagEmoji is shown for recipes whose tags are all outside the
// suggested vocabulary.
const DefaultTagEmoji = "🍽️"

// SuggestedTags is the fixed vocabulary the editing UI offers, in display
// order. Free-form tags are still accepted everywhere; this list only drives
// suggestions and emoji.
var SuggestedTags = []TagSuggestion{
	{"Vegano", "🌱"},
	{"Vegetariano", "🥦"},
	{"Senza glutine", "🚫🌾"},
	{"Senza lattosio", "🥛❌"},
	{"Proteico", "💪"},
	{"Light", "✨"},
	{"Comfort food", "🛋️"},
	{"Antipasto", "🥟"},
	{"Primo", "🍝"},
	{"Secondo", "🥘"},
	{"Contorno", "🥗"},
	{"Piatto unico", "🍲"},
	{"Zuppa", "🍜"},
	{"Insalata", "🥬"},
	{"Snack", "🍿"},
	{"Dolce", "🍰"},
	{"Dessert", "🧁"},
	{"Bevanda", "🍹"},
	{"Panificati", "🍞"},
	{"Pizza", "🍕"},
	{"Estivo", "🌞"},
	{"Autunnale", "🍂"},
	{"Invernale", "❄️"},
	{"Primaverile", "🌸"},
	{"Fresco", "🍉"},
	{"Caldo", "🔥"},
}

var emojiByTag = func() map[string]string {
	m := make(map[string]string, len(SuggestedTags))
	for _, s := range SuggestedTags {
		m[s.Name] = s.Emoji
	}
	return m
}()

// EmojiForTags returns the emoji of the first tag found in the suggested
// vocabulary, or the default plate when none match.
func EmojiForTags(tags []string) string {
	for _, tag := range tags {
		if emoji, ok := emojiByTag[strings.TrimSpace(tag)]; ok {
			return emoji
		}
	}
	return DefaultTagEmoji
}
