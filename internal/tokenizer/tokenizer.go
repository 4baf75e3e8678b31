// Package tokenizer turns raw comment text into lowercase word tokens
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MinIndexedLength is the shortest token worth indexing or counting
const MinIndexedLength = 3

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	hashtagPattern = regexp.MustCompile(`#\w+`)
)

// Tokenize strips URLs, @mentions and #hashtags, splits on every rune that is
// not a letter or digit and lowercases the result. It never fails.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	// fold compatibility forms (fullwidth letters, ligatures) before matching
	s := norm.NFKC.String(text)
	s = urlPattern.ReplaceAllString(s, " ")
	s = mentionPattern.ReplaceAllString(s, " ")
	s = hashtagPattern.ReplaceAllString(s, " ")

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// Indexable reports whether token is long enough to index
func Indexable(token string) bool {
	return len([]rune(token)) >= MinIndexedLength
}
