package diff

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// inlineDiff computes word-level tokens for a paired removed/added line. The
// removed side carries unchanged and removed tokens, the added side carries
// unchanged and added tokens.
func inlineDiff(oldLine, newLine string) (removedSide, addedSide []Token) {
	a := tokenizeWords(oldLine)
	b := tokenizeWords(newLine)

	matcher := difflib.NewMatcherWithJunk(a, b, false, nil)
	for _, op := range matcher.GetOpCodes() {
		same := strings.Join(a[op.I1:op.I2], "")
		inserted := strings.Join(b[op.J1:op.J2], "")
		switch op.Tag {
		case 'e':
			removedSide = appendToken(removedSide, Token{Value: same})
			addedSide = appendToken(addedSide, Token{Value: same})
		case 'd':
			removedSide = appendToken(removedSide, Token{Value: same, Removed: true})
		case 'i':
			addedSide = appendToken(addedSide, Token{Value: inserted, Added: true})
		case 'r':
			removedSide = appendToken(removedSide, Token{Value: same, Removed: true})
			addedSide = appendToken(addedSide, Token{Value: inserted, Added: true})
		}
	}
	return removedSide, addedSide
}

// appendToken merges tok into the last token when both share a class.
func appendToken(tokens []Token, tok Token) []Token {
	if tok.Value == "" {
		return tokens
	}
	if n := len(tokens); n > 0 && tokens[n-1].Added == tok.Added && tokens[n-1].Removed == tok.Removed {
		tokens[n-1].Value += tok.Value
		return tokens
	}
	return append(tokens, tok)
}

// tokenizeWords splits s into runs of whitespace, runs of word characters
// and single punctuation runes. Joining the tokens yields s.
func tokenizeWords(s string) []string {
	runes := []rune(s)
	var tokens []string
	for i := 0; i < len(runes); {
		j := i + 1
		switch r := runes[i]; {
		case unicode.IsSpace(r):
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
		case isWordRune(r):
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
		}
		tokens = append(tokens, string(runes[i:j]))
		i = j
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
