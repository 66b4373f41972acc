package pricing

import (
	"strings"
	"unicode"
)

// stopwords are tokens too generic to carry matching signal. The target
// shops are German and English language stores.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "von": {}, "und": {},
	"der": {}, "die": {}, "das": {}, "mit": {}, "fuer": {}, "für": {},
	"set": {}, "pro": {}, "inkl": {}, "incl": {},
}

// TitleMatcher scores how well arbitrary text refers to a target product.
// Numeric tokens (model numbers, wattages) are strong signals and must all
// be present; word tokens are weaker and only a quorum is required.
type TitleMatcher struct {
	NumericTokens []string
	WordTokens    []string
}

// NewTitleMatcher tokenizes manufacturer and title into a matcher.
func NewTitleMatcher(manufacturer, title string) *TitleMatcher {
	m := &TitleMatcher{}
	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(normalizeText(manufacturer + " " + title)) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if containsDigit(tok) {
			m.NumericTokens = append(m.NumericTokens, tok)
			continue
		}
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		m.WordTokens = append(m.WordTokens, tok)
	}
	return m
}

// Match scores text against the matcher. ok reports whether the text meets
// the relevance bar: every numeric token present, plus at least
// min(2, len(WordTokens)) word tokens. Score is 5 per numeric match plus
// 1 per word match.
func (m *TitleMatcher) Match(text string) (score int, ok bool) {
	normalized := normalizeText(text)
	numericMatches := 0
	for _, tok := range m.NumericTokens {
		if strings.Contains(normalized, tok) {
			numericMatches++
		}
	}
	wordMatches := 0
	for _, tok := range m.WordTokens {
		if strings.Contains(normalized, tok) {
			wordMatches++
		}
	}

	required := len(m.WordTokens)
	if required > 2 {
		required = 2
	}
	ok = numericMatches == len(m.NumericTokens) && wordMatches >= required
	return 5*numericMatches + wordMatches, ok
}

// normalizeText lowercases, maps non-alphanumeric runes to spaces, and
// collapses runs of whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// dedupeTokens removes duplicate whitespace-separated tokens
// (case-insensitively) while preserving order.
func dedupeTokens(s string) string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, tok := range strings.Fields(s) {
		key := strings.ToLower(tok)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}
