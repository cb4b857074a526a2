package validation

import "strings"

// NormalizeHSN keeps an HSN/SAC code only if it is made of ASCII digits.
func NormalizeHSN(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return ""
		}
	}
	return s
}
