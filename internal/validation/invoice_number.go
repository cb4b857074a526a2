package validation

import (
	"strings"
	"unicode"
)

// maxInvoiceNumberTokens bounds how many whitespace-separated words an
// invoice number may contain before it is treated as captured prose.
const maxInvoiceNumberTokens = 3

// ValidateInvoiceNumber returns the trimmed invoice number, or "" when it is
// longer than three tokens or made only of letters.
func ValidateInvoiceNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(strings.Fields(s)) > maxInvoiceNumberTokens {
		return ""
	}
	if isAllLetters(s) {
		return ""
	}
	return s
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
