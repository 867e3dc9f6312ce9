// ABOUTME: Text normalization shared by embedding, extraction and category inference
// ABOUTME: Lower-cases, splits on non-alphanumerics and filters stop-words
package util

import (
	"strings"
	"unicode"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"i": true, "im": true, "i'm": true, "me": true, "my": true, "mine": true,
	"you": true, "your": true, "we": true, "our": true, "it": true, "its": true,
	"is": true, "am": true, "are": true, "was": true, "were": true, "be": true,
	"do": true, "does": true, "did": true, "have": true, "has": true, "had": true,
	"what": true, "which": true, "who": true, "where": true, "when": true,
	"why": true, "how": true, "to": true, "of": true, "in": true, "on": true,
	"at": true, "for": true, "with": true, "about": true, "from": true,
	"that": true, "this": true, "these": true, "those": true, "so": true,
	"any": true, "some": true, "can": true, "could": true, "would": true,
	"should": true, "will": true, "just": true, "very": true, "really": true,
}

// Words splits text into lower-case words, keeping apostrophes inside words
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Tokenize returns the content words of text: lower-cased, trimmed of
// apostrophes, with stop-words and single characters removed
func Tokenize(text string) []string {
	words := Words(text)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, "'")
		if len([]rune(w)) < 2 || stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// Truncate shortens s to at most maxRunes runes
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// Stem strips common English plural and third-person suffixes so that
// "likes" and "like" or "cities" and "city" share a term
func Stem(word string) string {
	n := len(word)
	switch {
	case n > 4 && strings.HasSuffix(word, "ies"):
		return word[:n-3] + "y"
	case n > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") &&
		!strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is"):
		return word[:n-1]
	}
	return word
}

// Terms returns the stemmed content words of text
func Terms(text string) []string {
	tokens := Tokenize(text)
	for i, tok := range tokens {
		tokens[i] = Stem(tok)
	}
	return tokens
}
