// Package tags normalises the tag lists carried by maps, boxes and cards.
package tags

import (
	"regexp"
	"strings"
)

var sepRe = regexp.MustCompile(`[,\s]+`)

// Parse splits a comma or whitespace separated tag string into a normalised list.
func Parse(raw string) []string {
	return Normalize(sepRe.Split(raw, -1))
}

// Normalize trims and lower-cases tags, drops empty ones and removes
// duplicates while keeping first-seen order. The result is never nil.
func Normalize(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Join renders tags in the comma separated form accepted by Parse.
func Join(in []string) string {
	return strings.Join(in, ", ")
}
