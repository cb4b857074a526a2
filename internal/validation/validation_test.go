package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-15", "2024-03-15"},
		{"03/04/2024", "2024-03-04"},
		{"15/03/2024", "2024-03-15"},
		{"March 15, 2024", "2024-03-15"},
		{"not a date", "not a date"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestValidateInvoiceNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"INV-2024-001", "INV-2024-001"},
		{"  42 ", "42"},
		{"SI/23-24/118", "SI/23-24/118"},
		{"TAX INVOICE 12", "TAX INVOICE 12"},
		{"INVOICE", ""},
		{"Original for recipient copy", ""},
		{"A 1 B 2", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateInvoiceNumber(tt.in))
		})
	}
}

func TestNormalizeHSN(t *testing.T) {
	assert.Equal(t, "998314", NormalizeHSN(" 998314 "))
	assert.Equal(t, "", NormalizeHSN("9983-14"))
	assert.Equal(t, "", NormalizeHSN("SAC"))
	assert.Equal(t, "", NormalizeHSN("٣٤٥"))
	assert.Equal(t, "", NormalizeHSN(""))
}

func TestCheckAmounts(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		in := Amounts{Basic: "1,000.00", CGST: "90", SGST: "90", Total: "₹1,180.00", GSTPercent: "18%"}
		out, issues := CheckAmounts(in)
		assert.Empty(t, issues)
		assert.Equal(t, in, out)
	})

	t.Run("basic above total drops basic", func(t *testing.T) {
		out, issues := CheckAmounts(Amounts{Basic: "2000", Total: "1180", IGST: "180", GSTPercent: "18"})
		assert.Equal(t, "", out.Basic)
		assert.Equal(t, "1180", out.Total)
		assert.Equal(t, "18", out.GSTPercent)
		if assert.Len(t, issues, 1) {
			assert.Equal(t, AmountBasic, issues[0].Field)
		}
	})

	t.Run("sum mismatch drops total", func(t *testing.T) {
		out, issues := CheckAmounts(Amounts{Basic: "1000", IGST: "180", Total: "1250", GSTPercent: "18"})
		assert.Equal(t, "", out.Total)
		assert.Equal(t, "1000", out.Basic)
		assert.Equal(t, "18", out.GSTPercent)
		assert.Len(t, issues, 1)
	})

	t.Run("rounding tolerated", func(t *testing.T) {
		_, issues := CheckAmounts(Amounts{Basic: "847.46", CGST: "76.27", SGST: "76.27", Total: "1000"})
		assert.Empty(t, issues)
	})

	t.Run("wrong percent dropped", func(t *testing.T) {
		out, issues := CheckAmounts(Amounts{Basic: "1000", CGST: "60", SGST: "60", Total: "1120", GSTPercent: "18"})
		assert.Equal(t, "", out.GSTPercent)
		assert.Equal(t, "1120", out.Total)
		if assert.Len(t, issues, 1) {
			assert.Equal(t, AmountGSTPercent, issues[0].Field)
		}
	})

	t.Run("no taxes only checks ordering", func(t *testing.T) {
		out, issues := CheckAmounts(Amounts{Basic: "500", Total: "900"})
		assert.Empty(t, issues)
		assert.Equal(t, "900", out.Total)
	})

	t.Run("unparseable values left alone", func(t *testing.T) {
		in := Amounts{Basic: "n/a", Total: "see annexure"}
		out, issues := CheckAmounts(in)
		assert.Empty(t, issues)
		assert.Equal(t, in, out)
	})
}

func TestParseAmount(t *testing.T) {
	d, ok := ParseAmount("(1,250.50)")
	assert.True(t, ok)
	assert.Equal(t, "-1250.5", d.String())

	d, ok = ParseAmount("Rs. 99")
	assert.True(t, ok)
	assert.Equal(t, "99", d.String())

	_, ok = ParseAmount("")
	assert.False(t, ok)
}
