package validation

import (
	"strings"
)

const (
	// GSTINLength is the exact length of a well-formed GSTIN.
	GSTINLength = 15
	// DefaultCheckAnchor is the literal that always occupies index 13.
	DefaultCheckAnchor = 'Z'
	// DefaultOrgIdentity is the organization's own PAN segment.
	DefaultOrgIdentity = "AAECS5013J"

	minCorrectableLength = 12
	minStateCode         = 1
	maxStateCode         = 37
)

// OCR confusions pulled back toward a digit.
var toDigit = map[rune]rune{
	'S': '5', 'B': '8', 'Z': '2', 'O': '0', 'I': '1', 'L': '1', 'G': '6',
}

// OCR confusions pulled back toward a letter.
var toLetter = map[rune]rune{
	'5': 'S', '8': 'B', '2': 'Z', '0': 'O', '1': 'I', '6': 'G',
}

// GSTINValidator repairs and validates GSTIN-shaped tax identifiers.
// The zero value uses DefaultOrgIdentity and DefaultCheckAnchor.
type GSTINValidator struct {
	// OrgIdentity is the 10-character identity segment (positions 2-11)
	// of the organization itself; matching GSTINs are rejected.
	OrgIdentity string
	// CheckAnchor is forced into position 13.
	CheckAnchor rune
}

func NewGSTINValidator(orgIdentity string) GSTINValidator {
	return GSTINValidator{OrgIdentity: orgIdentity}
}

func (v GSTINValidator) orgIdentity() string {
	if v.OrgIdentity == "" {
		return DefaultOrgIdentity
	}
	return strings.ToUpper(strings.TrimSpace(v.OrgIdentity))
}

func (v GSTINValidator) anchor() rune {
	if v.CheckAnchor == 0 {
		return DefaultCheckAnchor
	}
	return v.CheckAnchor
}

// Correct applies the positional OCR-confusion repair. Values shorter than
// 12 characters are only trimmed and upper-cased.
func (v GSTINValidator) Correct(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len([]rune(s)) < minCorrectableLength {
		return s
	}
	rs := []rune(s)
	for i := range rs {
		switch {
		case i <= 1, i >= 7 && i <= 10:
			if d, ok := toDigit[rs[i]]; ok {
				rs[i] = d
			}
		case i >= 2 && i <= 6, i == 11:
			if l, ok := toLetter[rs[i]]; ok {
				rs[i] = l
			}
		case i == 13:
			rs[i] = v.anchor()
		}
	}
	return string(rs)
}

// Validate checks an already-corrected value and returns it, or "".
func (v GSTINValidator) Validate(s string) string {
	if len(s) != GSTINLength {
		return ""
	}
	b := []byte(s)
	if !isDigit(b[0]) || !isDigit(b[1]) {
		return ""
	}
	state := int(b[0]-'0')*10 + int(b[1]-'0')
	if state < minStateCode || state > maxStateCode {
		return ""
	}
	b[13] = byte(v.anchor())
	for i := 2; i <= 6; i++ {
		if !isUpperLetter(b[i]) {
			return ""
		}
	}
	for i := 7; i <= 10; i++ {
		if !isDigit(b[i]) {
			return ""
		}
	}
	if !isUpperLetter(b[11]) {
		return ""
	}
	if !isDigit(b[12]) && !isUpperLetter(b[12]) {
		return ""
	}
	if !isDigit(b[14]) && !isUpperLetter(b[14]) {
		return ""
	}
	if string(b[2:12]) == v.orgIdentity() {
		return ""
	}
	return string(b)
}

// CorrectAndValidate repairs then validates s. It is idempotent.
func (v GSTINValidator) CorrectAndValidate(s string) string {
	return v.Validate(v.Correct(s))
}

func isDigit(c byte) bool       { return c >= '0' && c <= '9' }
func isUpperLetter(c byte) bool { return c >= 'A' && c <= 'Z' }
