// Package assess scores a spoken utterance against a corrected reference.
package assess

import "strings"

// Normalize lower-cases text, replaces everything outside a-z and the
// apostrophe with spaces and collapses whitespace.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || r == '\'' {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Tokens normalizes text and splits it into words.
func Tokens(text string) []string {
	n := Normalize(text)
	if n == "" {
		return nil
	}
	return strings.Split(n, " ")
}
