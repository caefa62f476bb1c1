// Package text provides input text cleaning for synthesis requests.
//
// Only NUL, C0 control characters other than tab and line breaks, DEL and
// invalid UTF-8 are removed; wording, numbers and punctuation pass through.
package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLength is the largest accepted text length, counted in characters after trimming.
const MaxLength = 3000

const controlCharPattern = `[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`

// Sanitizer strips unspeakable characters from request text.
type Sanitizer struct {
	controlPattern *regexp.Regexp
}

// NewSanitizer creates a Sanitizer with its pattern compiled upfront.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		controlPattern: regexp.MustCompile(controlCharPattern),
	}
}

// Sanitize removes control characters and invalid UTF-8, then trims whitespace.
func (s *Sanitizer) Sanitize(input string) string {
	if input == "" {
		return input
	}

	cleaned := strings.ToValidUTF8(input, "")
	cleaned = s.controlPattern.ReplaceAllString(cleaned, "")

	return strings.TrimSpace(cleaned)
}

// Length returns the character count of text.
func Length(input string) int {
	return utf8.RuneCountInString(input)
}

// TooLong reports whether text exceeds MaxLength characters.
func TooLong(input string) bool {
	return Length(input) > MaxLength
}
