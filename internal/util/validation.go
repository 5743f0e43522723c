package util

import (
	"strings"
	"unicode"
)

const MaxIdentifierLength = 128

// IsValidIdentifier accepts the caller-chosen ids (user ids, device ids):
// non-empty, bounded, printable, no surrounding whitespace.
func IsValidIdentifier(s string) bool {
	if s == "" || len(s) > MaxIdentifierLength {
		return false
	}
	if strings.TrimSpace(s) != s {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
