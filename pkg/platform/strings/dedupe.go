// Package strings provides string normalization used for catalog keywords and tags.
package strings

import (
	"strings"
	"unicode"
)

// DedupeAndTrim removes duplicates and empty strings, trimming each element.
// Order is preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower is DedupeAndTrim with lowercasing, for case-insensitive sets.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// SplitTerms splits free text on commas, slashes, middle dots, pipes and
// newlines, then dedupes the trimmed pieces. Upstream catalogs pack keyword
// and life-stage lists into a single field using any of these separators.
//
//	SplitTerms("임신·출산, 영유아 | 영유아") // []string{"임신", "출산", "영유아"}
func SplitTerms(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', '/', '·', '|', ';', '\n', '\r', '\t':
			return true
		}
		return false
	})
	return DedupeAndTrim(parts)
}

// ContainsFold reports whether substr is within s, ignoring case and
// collapsing internal whitespace differences.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(normalizeSpace(strings.ToLower(s)), normalizeSpace(strings.ToLower(substr)))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
