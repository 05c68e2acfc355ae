// Package extract normalizes entities embedded in raw posts: hashtags,
// account mentions, and tracked brand names. All functions are pure
// and permissive: malformed entries are dropped, never reported.
package extract

import "strings"

// NormalizeTags lowercases and trims tag strings and drops empties.
// Duplicates are kept here; the store's unique (post, tag) constraint
// collapses them on insert.
func NormalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		t = strings.TrimPrefix(t, "#")
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// NormalizeMentions trims mention handles, strips a leading @, and
// drops empties. Repeated handles are preserved: a post mentioning the
// same account twice records two rows.
func NormalizeMentions(mentions []string) []string {
	var out []string
	for _, mention := range mentions {
		m := strings.TrimSpace(mention)
		m = strings.TrimPrefix(m, "@")
		if m == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// BrandMatcher finds tracked brand names in post text.
type BrandMatcher struct {
	brands []string
	lower  []string
}

// NewBrandMatcher creates a matcher over the configured brand list.
// Matching is case-insensitive; the returned name keeps the configured
// casing.
func NewBrandMatcher(brands []string) *BrandMatcher {
	m := &BrandMatcher{}
	for _, b := range brands {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		m.brands = append(m.brands, b)
		m.lower = append(m.lower, strings.ToLower(b))
	}
	return m
}

// Match returns the first tracked brand mentioned in text, or "" when
// none matches.
func (m *BrandMatcher) Match(text string) string {
	if m == nil || len(m.brands) == 0 {
		return ""
	}
	lower := strings.ToLower(text)
	for i, b := range m.lower {
		if strings.Contains(lower, b) {
			return m.brands[i]
		}
	}
	return ""
}
