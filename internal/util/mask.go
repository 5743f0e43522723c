package util

import "strings"

// MaskCode keeps the first two characters of a code for log correlation.
func MaskCode(code string) string {
	if len(code) <= 2 {
		return "****"
	}
	return code[:2] + strings.Repeat("*", len(code)-2)
}
