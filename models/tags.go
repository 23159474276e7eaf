package models

import "strings"

// TagSeparator joins a recipe's tags into the single string stored on the row.
const TagSeparator = "|"

// DecodeTags splits a stored tag string into the ordered list of tags.
// Entries are trimmed and empty ones dropped. An empty input yields an
// empty, non-nil slice so JSON renders [] instead of null.
func DecodeTags(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	for _, t := range strings.Split(raw, TagSeparator) {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// SanitizeTagList applies the decode-side filter to an already split list:
// trim every entry and drop the empty ones, keeping order.
func SanitizeTagList(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// EncodeTags builds the stored representation of a tag list: entries are
// trimmed, empties dropped, and duplicates removed case-insensitively while
// the first occurrence keeps its position and original casing.
// EncodeTags(DecodeTags(EncodeTags(l))) == EncodeTags(l) for any l.
func EncodeTags(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	ordered := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ordered = append(ordered, t)
	}
	return strings.Join(ordered, TagSeparator)
}
