package accesskey

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const DefaultLength = 12

// SuspiciousChars may never appear in an access key.
var SuspiciousChars = []string{";", ":", "&", `"`, "'", "`", ">", "<", "{", "}", "|", ".", "%"}

// local part: letters, digits and . + _ -
// domain: letters, digits and . _ - followed by a literal dot and a letters-only TLD
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9.+_-]+@[A-Za-z0-9._-]+\.[A-Za-z]*$`)

type Sanitizer struct {
	length int
}

func NewSanitizer(length int) Sanitizer {
	if length <= 0 {
		length = DefaultLength
	}
	return Sanitizer{length: length}
}

func (s Sanitizer) Length() int {
	return s.length
}

// Sanitize URL-decodes and trims a user supplied key. ok is false when the result does not
// have the expected length or contains a suspicious character.
func (s Sanitizer) Sanitize(raw string) (key string, ok bool) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return "", false
	}
	decoded = strings.TrimSpace(decoded)

	if utf8.RuneCountInString(decoded) != s.length {
		return "", false
	}
	for _, c := range SuspiciousChars {
		if strings.Contains(decoded, c) {
			return "", false
		}
	}
	return decoded, true
}

func IsEmailAddress(value string) bool {
	return emailPattern.MatchString(value)
}
