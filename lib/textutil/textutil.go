package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeHeader(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// MatchAllTokens reports whether name contains every token as a
// case-insensitive substring. the portal's column names are not stable
// between pages, so columns are resolved by token containment instead of
// exact names.
func MatchAllTokens(name string, tokens []string) bool {
	name = NormalizeHeader(name)
	for _, tok := range tokens {
		if !strings.Contains(name, strings.ToLower(tok)) {
			return false
		}
	}
	return len(tokens) > 0
}

// FindHeader returns the first header matching all tokens, or "" when
// none does.
func FindHeader(headers []string, tokens []string) string {
	for _, h := range headers {
		if MatchAllTokens(h, tokens) {
			return h
		}
	}
	return ""
}

// LeadingToken truncates a code value of the form "CODE trailing description"
// to the part before the first space. values without a space pass through.
func LeadingToken(value string) string {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, ' '); i != -1 {
		return value[:i]
	}
	return value
}
