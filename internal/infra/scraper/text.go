package scraper

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// cleanText makes extracted text safe to store: invalid UTF-8 becomes
// U+FFFD, NUL bytes are dropped and the result is NFC normalised. Non-ASCII
// characters are kept.
func cleanText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	s = strings.ReplaceAll(s, "\x00", "")
	return norm.NFC.String(s)
}

// collapseSpace trims s and folds internal whitespace runs to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
