package rewrite

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rescribe/internal/notebook"
)

// DeclinedError marks generated text the rewriter refused to splice in.
// The document is left untouched; the caller reports a skip.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return "rewrite declined: " + e.Reason
}

// IsDeclined returns true if the error is a *DeclinedError.
// Uses errors.As to handle wrapped errors.
func IsDeclined(err error) bool {
	var de *DeclinedError
	return errors.As(err, &de)
}

// Rewrite replaces the reasoning cell at targetCell with the generated
// text, preserving the cell's marker, kind, id, and position. Generated
// text that is empty after trimming, not valid UTF-8, or carrying control
// characters is declined rather than written.
func Rewrite(doc *notebook.Document, targetCell int, generated string) (*notebook.Document, error) {
	text := strings.TrimSpace(generated)
	if text == "" {
		return nil, &DeclinedError{Reason: "generated text is empty"}
	}
	if !utf8.ValidString(text) {
		return nil, &DeclinedError{Reason: "generated text is not valid UTF-8"}
	}
	if bad, ok := firstUnprintable(text); ok {
		return nil, &DeclinedError{Reason: "generated text contains unprintable character " + strconv.QuoteRune(bad)}
	}

	return notebook.ReplaceReasoning(doc, targetCell, norm.NFC.String(text))
}

// firstUnprintable returns the first rune outside the printable set.
// Newlines and tabs are allowed; other control characters are not.
func firstUnprintable(s string) (rune, bool) {
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if !unicode.IsPrint(r) {
			return r, true
		}
	}
	return 0, false
}
