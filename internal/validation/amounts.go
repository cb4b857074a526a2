package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// amountTolerance absorbs rounding on printed invoices.
	amountTolerance = decimal.NewFromInt(1)
	// percentTolerance is the allowed gap, in percentage points, between
	// the stated GST rate and the rate implied by the amounts.
	percentTolerance = decimal.RequireFromString("0.5")
	hundred          = decimal.NewFromInt(100)
)

// Amounts is the commercial part of one line record, as extracted text.
type Amounts struct {
	Basic      string
	CGST       string
	SGST       string
	IGST       string
	Total      string
	GSTPercent string
}

// AmountField names a field of Amounts in AmountIssue.
type AmountField string

const (
	AmountBasic      AmountField = "Basic_Amount"
	AmountTotal      AmountField = "Total_Amount"
	AmountGSTPercent AmountField = "gst_percent"
)

// AmountIssue records a field dropped by CheckAmounts.
type AmountIssue struct {
	Field  AmountField
	Value  string
	Reason string
}

// ParseAmount reads a printed amount: thousands separators, currency marks,
// a trailing percent sign and accounting-style (negative) parentheses are
// accepted.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = amountNoise.Replace(s)
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.TrimPrefix(s, "Rs")
	s = strings.TrimPrefix(s, "INR")
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

var amountNoise = strings.NewReplacer(",", "", "₹", "", "$", "", "€", "", "£", "", "%", "", " ", "")

// CheckAmounts enforces basic <= total, total == basic + taxes (when taxes
// are present) and gst_percent == taxes / basic. A field that breaks a rule
// is blanked in the returned copy; nothing is ever recomputed.
func CheckAmounts(a Amounts) (Amounts, []AmountIssue) {
	var issues []AmountIssue
	out := a

	basic, hasBasic := ParseAmount(a.Basic)
	total, hasTotal := ParseAmount(a.Total)

	if hasBasic && hasTotal && basic.GreaterThan(total) {
		issues = append(issues, AmountIssue{Field: AmountBasic, Value: a.Basic, Reason: "basic amount exceeds total"})
		out.Basic = ""
		hasBasic = false
	}

	taxes, hasTaxes := sumTaxes(a.CGST, a.SGST, a.IGST)

	if hasBasic && hasTotal && hasTaxes {
		if basic.Add(taxes).Sub(total).Abs().GreaterThan(amountTolerance) {
			issues = append(issues, AmountIssue{Field: AmountTotal, Value: a.Total, Reason: "total does not equal basic plus taxes"})
			out.Total = ""
		}
	}

	if pct, ok := ParseAmount(a.GSTPercent); ok && hasBasic && hasTaxes && basic.IsPositive() {
		implied := taxes.Div(basic).Mul(hundred)
		if pct.Sub(implied).Abs().GreaterThan(percentTolerance) {
			issues = append(issues, AmountIssue{Field: AmountGSTPercent, Value: a.GSTPercent, Reason: "gst percent does not match taxes over basic"})
			out.GSTPercent = ""
		}
	}

	return out, issues
}

func sumTaxes(values ...string) (decimal.Decimal, bool) {
	sum := decimal.Zero
	found := false
	for _, v := range values {
		if d, ok := ParseAmount(v); ok {
			sum = sum.Add(d)
			found = true
		}
	}
	return sum, found
}
