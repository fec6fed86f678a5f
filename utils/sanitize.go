package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// maxSanitizePasses bounds the decode/strip loop for deeply nested entity encodings.
const maxSanitizePasses = 8

// SanitizeText strips every HTML tag from user supplied plain text and
// collapses surrounding whitespace. Entity-encoded markup is decoded before
// stripping, and the loop runs until the text is stable so nothing the
// sanitizer escaped can decode back into a tag.
func SanitizeText(input string) string {
	out := input
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(sanitizer.Sanitize(html.UnescapeString(out)))
		if next == out {
			return strings.TrimSpace(out)
		}
		out = next
	}
	// Not stable: keep the escaped form rather than risk live markup.
	return strings.TrimSpace(sanitizer.Sanitize(html.UnescapeString(out)))
}
