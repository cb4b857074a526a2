package validation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGSTINCorrectAndValidate(t *testing.T) {
	v := NewGSTINValidator(DefaultOrgIdentity)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already valid", "27ABCDE1234F2Z5", "27ABCDE1234F2Z5"},
		{"leading O1 read as 01", "O1ABCDE1234F1Z5", "01ABCDE1234F1Z5"},
		{"lowercase and padding", "  27abcde1234f2z5 ", "27ABCDE1234F2Z5"},
		{"digit in letter block", "27ABCD51234F1Z5", "27ABCDS1234F1Z5"},
		{"letters in digit block", "27ABCDEI2O4F1Z5", "27ABCDE1204F1Z5"},
		{"digit at position 11", "27ABCDE123481Z5", "27ABCDE1234B1Z5"},
		{"anchor overwritten", "27ABCDE1234F1X5", "27ABCDE1234F1Z5"},
		{"state code 38", "38ABCDE1234F1Z5", ""},
		{"state code 00", "00ABCDE1234F1Z5", ""},
		{"state code 37", "37ABCDE1234F1Z5", "37ABCDE1234F1Z5"},
		{"too short", "27ABCDE", ""},
		{"too long", "27ABCDE1234F1Z55", ""},
		{"organization itself", "27AAECS5013J1Z5", ""},
		{"empty", "", ""},
		{"bad tail", "27ABCDE1234F1Z-", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.CorrectAndValidate(tt.in))
		})
	}
}

func TestGSTINZeroValueUsesDefaults(t *testing.T) {
	var v GSTINValidator
	assert.Equal(t, "", v.CorrectAndValidate("29AAECS5013J1Z5"))
	assert.Equal(t, "29AAECS5013J1Z5", NewGSTINValidator("BBBBB1111B").CorrectAndValidate("29AAECS5013J1Z5"))
}

const gstinAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ0125688SBZOILG"

func randomGSTINish(r *rand.Rand) string {
	n := 10 + r.Intn(8)
	b := make([]byte, n)
	for i := range b {
		b[i] = gstinAlphabet[r.Intn(len(gstinAlphabet))]
	}
	return string(b)
}

func TestGSTINIdempotent(t *testing.T) {
	v := NewGSTINValidator(DefaultOrgIdentity)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		in := randomGSTINish(r)
		once := v.CorrectAndValidate(in)
		assert.Equal(t, once, v.CorrectAndValidate(once), "input %q", in)
	}
	for _, in := range []string{"27ABCDE1234F2Z5", "O1ABCDE1234F1Z5", "S7BBCDE1234F1Z5"} {
		once := v.CorrectAndValidate(in)
		assert.Equal(t, once, v.CorrectAndValidate(once))
	}
}

func TestGSTINRejectsStateCodeOutOfRange(t *testing.T) {
	v := NewGSTINValidator(DefaultOrgIdentity)
	r := rand.New(rand.NewSource(7))
	for code := 38; code <= 99; code++ {
		tail := randomGSTINish(r)
		in := string([]byte{byte('0' + code/10), byte('0' + code%10)}) + "ABCDE1234F1Z5"
		assert.Empty(t, v.CorrectAndValidate(in), "state %d", code)
		assert.Empty(t, v.CorrectAndValidate(in[:2]+tail), "state %d", code)
	}
	assert.Empty(t, v.CorrectAndValidate("00ABCDE1234F1Z5"))
}

func TestGSTINRejectsOrganizationIdentity(t *testing.T) {
	v := NewGSTINValidator("ABCDE1234F")
	for _, in := range []string{"27ABCDE1234F1Z5", "O9ABCDE1234F1Z5", "27ABCDE1234F9ZA"} {
		assert.Empty(t, v.CorrectAndValidate(in), in)
	}
	assert.NotEmpty(t, v.CorrectAndValidate("27ABCDF1234F1Z5"))
}
