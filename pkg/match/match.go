package match

import (
	"regexp"
	"strings"
	"sync"
)

// EqualsFold reports whether value equals operand, case-insensitively.
func EqualsFold(value, operand string) bool {
	return strings.EqualFold(value, operand)
}

// StartsWith reports whether value begins with operand, case-insensitively.
func StartsWith(value, operand string) bool {
	return len(value) >= len(operand) && strings.EqualFold(value[:len(operand)], operand)
}

// EndsWith reports whether value ends with operand, case-insensitively.
func EndsWith(value, operand string) bool {
	return len(value) >= len(operand) && strings.EqualFold(value[len(value)-len(operand):], operand)
}

// ContainsPhrase reports whether value contains operand as a substring,
// case-insensitively. This is the containsExactly semantics: the operand is
// a phrase, not a token list.
func ContainsPhrase(value, operand string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(operand))
}

// Tokenize splits text into lower-cased whole tokens. Tokens are maximal
// runs of letters and digits; everything else separates.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

// ContainsTokens reports whether value contains every whitespace-separated
// token of operand as a whole token. This is the contains semantics: token
// search, not substring search.
func ContainsTokens(value, operand string) bool {
	want := strings.Fields(strings.ToLower(operand))
	if len(want) == 0 {
		return false
	}
	have := make(map[string]bool)
	for _, tok := range Tokenize(value) {
		have[tok] = true
	}
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}

var (
	wildcardMu    sync.Mutex
	wildcardCache = make(map[string]*regexp.Regexp)
)

// Wildcard reports whether value matches the pattern, where `*` matches any
// run of characters (including none) and `?` matches exactly one character.
// Matching is case-insensitive and anchored at both ends.
func Wildcard(value, pattern string) bool {
	wildcardMu.Lock()
	re, ok := wildcardCache[pattern]
	if !ok {
		re = compileWildcard(pattern)
		wildcardCache[pattern] = re
	}
	wildcardMu.Unlock()
	return re.MatchString(value)
}

func compileWildcard(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
