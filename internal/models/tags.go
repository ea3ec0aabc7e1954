package models

import "strings"

// NormalizeTags trims whitespace, drops empty tags, and removes duplicates
// while preserving first-occurrence order.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}

// ParseTags splits a comma-separated tag string. Both ASCII and fullwidth
// commas are accepted as separators.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，'
	})

	return NormalizeTags(parts)
}
