package vocab

import (
	"strings"
	"unicode"
)

// shortTermLen is the longest alphanumeric term matched as a whole word.
// Longer terms and phrases match as substrings.
const shortTermLen = 3

// Terms is a list of lower-case terms matched against free text.
type Terms []string

// Match returns the first term contained in text.
func (t Terms) Match(text string) (string, bool) {
	lower := strings.ToLower(text)
	var words map[string]struct{}
	for _, term := range t {
		if matches(lower, term, &words) {
			return term, true
		}
	}
	return "", false
}

// Any reports whether text contains at least one term.
func (t Terms) Any(text string) bool {
	_, ok := t.Match(text)
	return ok
}

// Count returns the number of distinct terms contained in text.
func (t Terms) Count(text string) int {
	lower := strings.ToLower(text)
	var words map[string]struct{}
	n := 0
	seen := make(map[string]struct{}, len(t))
	for _, term := range t {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if matches(lower, term, &words) {
			n++
		}
	}
	return n
}

// Has reports whether the list contains exactly s, ignoring case.
func (t Terms) Has(s string) bool {
	for _, term := range t {
		if strings.EqualFold(term, s) {
			return true
		}
	}
	return false
}

func (t Terms) clone() Terms {
	out := make(Terms, len(t))
	for i, s := range t {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// ContainsWord reports whether text contains word as a whole token.
func ContainsWord(text, word string) bool {
	w := strings.ToLower(word)
	for _, tok := range tokenize(strings.ToLower(text)) {
		if tok == w {
			return true
		}
	}
	return false
}

func matches(lower, term string, words *map[string]struct{}) bool {
	if term == "" {
		return false
	}
	if !isShortWord(term) {
		return strings.Contains(lower, term)
	}
	if *words == nil {
		toks := tokenize(lower)
		*words = make(map[string]struct{}, len(toks))
		for _, tok := range toks {
			(*words)[tok] = struct{}{}
		}
	}
	_, ok := (*words)[term]
	return ok
}

func isShortWord(term string) bool {
	if len(term) > shortTermLen {
		return false
	}
	for _, r := range term {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
