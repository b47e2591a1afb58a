package text

import (
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tokens are runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize lowercases s and splits it into word tokens, keeping duplicates
// and their order.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	// A Caser must not be shared between goroutines.
	return tokenPattern.FindAllString(cases.Lower(language.Und).String(s), -1)
}

// Terms is Tokenize with every token found in stop removed.
func Terms(s string, stop StopWords) []string {
	tokens := Tokenize(s)
	if len(stop) == 0 {
		return tokens
	}

	out := tokens[:0]
	for _, tok := range tokens {
		if stop.Contains(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
