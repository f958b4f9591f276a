package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "to": true, "in": true,
	"on": true, "for": true, "and": true, "or": true, "but": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true,
	"being": true, "with": true, "as": true, "at": true, "by": true,
	"from": true, "that": true, "this": true, "these": true, "those": true,
	"it": true, "its": true, "into": true, "about": true, "over": true,
	"under": true, "than": true, "then": true, "so": true, "such": true,
	"not": true, "no": true,
}

var folder = cases.Fold()

// Tokenize runs the full pipeline: NFKC normalization, camelCase and
// letter/digit boundary splitting, case folding, stopword removal, light
// suffix stemming, plus adjacent-token bigrams so compound terms like
// "binary search" can match "binarysearch"-style titles.
func Tokenize(s string) []string {
	unigrams := baseTokens(s)
	if len(unigrams) == 0 {
		return nil
	}

	out := make([]string, 0, 2*len(unigrams))
	out = append(out, unigrams...)
	for i := 0; i+1 < len(unigrams); i++ {
		out = append(out, unigrams[i]+"_"+unigrams[i+1])
	}
	return out
}

// TokenizeTag treats - and _ as separators before the normal pipeline and
// skips bigrams; tags are short enough already.
func TokenizeTag(tag string) []string {
	tag = strings.ReplaceAll(tag, "-", " ")
	tag = strings.ReplaceAll(tag, "_", " ")
	return baseTokens(tag)
}

func baseTokens(s string) []string {
	s = norm.NFKC.String(s)

	var tokens []string
	for _, word := range splitWords(s) {
		t := folder.String(word)
		if stopwords[t] {
			continue
		}
		t = stem(t)
		if t == "" || stopwords[t] {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// splitWords cuts the input into alphanumeric runs and further splits at
// lower-to-upper (camelCase) and letter/digit boundaries: "parseJSON2go"
// yields "parse", "JSON", "2", "go".
func splitWords(s string) []string {
	var words []string
	runes := []rune(s)
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(r):
			flush(i)
			start = i
		case unicode.IsLetter(prev) != unicode.IsLetter(r):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

// stem strips common English suffixes. Heuristic only: enough to make
// "testing"/"tested"/"tests" collide, not a linguistic stemmer.
func stem(t string) string {
	if len(t) > 5 {
		for _, suffix := range []string{"ing", "ness", "ment"} {
			if strings.HasSuffix(t, suffix) {
				return t[:len(t)-len(suffix)]
			}
		}
	}
	if len(t) > 4 {
		if strings.HasSuffix(t, "ies") {
			return t[:len(t)-3] + "y"
		}
		for _, suffix := range []string{"ed", "ly"} {
			if strings.HasSuffix(t, suffix) {
				return t[:len(t)-len(suffix)]
			}
		}
	}
	if len(t) > 3 {
		if strings.HasSuffix(t, "es") {
			return t[:len(t)-2]
		}
		if strings.HasSuffix(t, "s") && !strings.HasSuffix(t, "ss") {
			return t[:len(t)-1]
		}
	}
	return t
}
