// Package normalize turns raw legislator names into a canonical comparison
// form: case-folded, diacritic-free, honorific-free, whitespace-collapsed.
// Every name that enters matching or alias storage goes through here, so the
// alias uniqueness invariant is defined over this normalization.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Honorifics and courtesy titles stripped from free-text mentions.
// Matched against folded tokens, so "Diputada" and "diputada" both strip.
var honorifics = map[string]bool{
	"diputado":  true,
	"diputada":  true,
	"senador":   true,
	"senadora":  true,
	"honorable": true,
	"don":       true,
	"dona":      true,
	"sr":        true,
	"sra":       true,
	"srta":      true,
	"dr":        true,
	"dra":       true,
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lower-cases s and strips diacritics: "Pérez" -> "perez".
func Fold(s string) string {
	folded, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		// Mn-removal over NFD cannot fail on valid UTF-8; fall back to the input.
		folded = s
	}
	return strings.ToLower(folded)
}

// Name normalizes a raw name for comparison and alias storage: fold, strip
// punctuation except the initial-marking dot, drop honorific tokens, collapse
// whitespace. "  Diputado  Juan PÉREZ " -> "juan perez".
func Name(s string) string {
	return strings.Join(Tokens(s), " ")
}

// Tokens returns the normalized name tokens of s, honorifics removed.
// A trailing dot marking an initial is dropped: "J." becomes "j".
func Tokens(s string) []string {
	folded := Fold(s)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if honorifics[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// IsInitial reports whether a normalized token is a single-letter initial.
func IsInitial(tok string) bool {
	return len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'z'
}
