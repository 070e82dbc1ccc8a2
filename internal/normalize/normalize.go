// Showtimes - Multi-Brand Cinema Schedule Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/showtimes

package normalize

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var (
	bracketPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)
	parenPattern   = regexp.MustCompile(`\(([^()]*)\)`)
	screenPattern  = regexp.MustCompile(`(\d+)관`)

	strayReplacer     = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ")
)

// DecodeEntities decodes HTML entities (&#40;, &amp;, ...) and folds
// full-width forms to ASCII, so "（１관）" reads as "(1관)". Hangul is left
// untouched.
func DecodeEntities(s string) string {
	return width.Fold.String(html.UnescapeString(s))
}

// ParseAndNormalizeTitle splits a raw movie title into its clean title and
// the metadata tags found in [...] and (...) groups. Tags are deduplicated
// and keep first-seen order. The clean title never contains brackets.
func ParseAndNormalizeTitle(raw string) (string, []string) {
	s := DecodeEntities(raw)

	var tags []string
	seen := make(map[string]struct{})
	addTag := func(tag string) {
		tag = collapseSpaces(tag)
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	s = extractGroups(s, bracketPattern, addTag)
	s = extractGroups(s, parenPattern, addTag)

	// Unbalanced leftovers such as "Title (Dub" are dropped, not tagged.
	s = strayReplacer.Replace(s)

	return collapseSpaces(s), tags
}

// NormalizeTitle returns the identity key of a title: lowercase, with every
// character outside [a-z0-9가-힣] removed. Titles that differ only in
// punctuation or spacing share a key.
func NormalizeTitle(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r >= '가' && r <= '힣':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeScreenName canonicalizes an auditorium name. All-digit names and
// names containing an "N관" pattern become "N관" with ASCII digits, whether
// the source wrote them half or full width; anything else has its bracketed
// content removed.
func NormalizeScreenName(s string) string {
	s = strings.TrimSpace(DecodeEntities(s))
	if s == "" {
		return ""
	}
	if isDigits(s) {
		return s + "관"
	}
	if m := screenPattern.FindStringSubmatch(s); m != nil {
		return m[1] + "관"
	}

	discard := func(string) {}
	s = extractGroups(s, bracketPattern, discard)
	s = extractGroups(s, parenPattern, discard)
	return collapseSpaces(strayReplacer.Replace(s))
}

// extractGroups repeatedly removes innermost matches of pattern until none
// remain, passing each group's inner text to emit.
func extractGroups(s string, pattern *regexp.Regexp, emit func(string)) string {
	for {
		matches := pattern.FindAllStringSubmatch(s, -1)
		if len(matches) == 0 {
			return s
		}
		for _, m := range matches {
			emit(m[1])
		}
		s = pattern.ReplaceAllString(s, " ")
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
