package detect

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes raw text into the comparable form every downstream
// stage operates on: case folded to lower, CRLF replaced with LF, every
// maximal run of characters that are neither letters nor digits replaced by a
// single space, whitespace runs collapsed, and the result trimmed.
//
// Normalize is idempotent. All fingerprint and span positions produced by
// this package index the normalized string, never the raw input; callers that
// want to highlight the raw document must re-map offsets themselves.
func Normalize(raw string) string {
	lowered := strings.ToLower(strings.ReplaceAll(raw, "\r\n", "\n"))

	var b strings.Builder
	b.Grow(len(lowered))
	pendingSpace := false
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		// Anything else (punctuation, symbols, whitespace) starts or extends
		// a separator run that collapses to one space between tokens.
		pendingSpace = true
	}
	return b.String()
}
