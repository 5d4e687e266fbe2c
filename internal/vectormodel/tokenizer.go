package vectormodel

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize lowercases text, replaces every character that is not a letter,
// digit, underscore, or whitespace with a space, and splits on whitespace.
// Short tokens are kept on purpose; single-character words still carry
// signal for vector lookup.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(text))
	return strings.Fields(cleaned)
}

// posTags are the morphological tag suffixes used by tagged pretrained
// vocabularies, tried in this fixed order.
var posTags = [...]string{"_NOUN", "_VERB", "_ADJ", "_ADV", "_PRON", "_DET", "_PREP", "_CONJ"}

// trailingVowels is the vowel class stripped by the stemming fallback,
// covering Latin and Cyrillic vocabularies.
const trailingVowels = "aeiouyаеёиоуыэюя"

// lookupToken resolves a token against the space vocabulary: exact match
// first, then tagged variants for pretrained spaces, then the token with
// one and two trailing vowels stripped (each retried exact and tagged).
// Unresolvable tokens are simply skipped by callers.
func lookupToken(sp Space, token string) ([]float32, bool) {
	if vec, ok := lookupExact(sp, token); ok {
		return vec, true
	}
	for _, variant := range stemVariants(token) {
		if vec, ok := lookupExact(sp, variant); ok {
			return vec, true
		}
	}
	return nil, false
}

func lookupExact(sp Space, token string) ([]float32, bool) {
	if vec, ok := sp.VectorFor(token); ok {
		return vec, true
	}
	if sp.Pretrained() {
		for _, tag := range posTags {
			if vec, ok := sp.VectorFor(token + tag); ok {
				return vec, true
			}
		}
	}
	return nil, false
}

// stemVariants returns the token with one and then two trailing
// vowel-class runes removed. Stripping stops at the first non-vowel and
// never produces an empty variant.
func stemVariants(token string) []string {
	var variants []string
	current := token
	for i := 0; i < 2; i++ {
		r, size := utf8.DecodeLastRuneInString(current)
		if size == 0 || !strings.ContainsRune(trailingVowels, r) {
			break
		}
		current = current[:len(current)-size]
		if current == "" {
			break
		}
		variants = append(variants, current)
	}
	return variants
}
