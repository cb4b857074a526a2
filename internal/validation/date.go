package validation

import (
	"strings"

	"github.com/araddon/dateparse"
)

// CanonicalDateLayout is the output layout of NormalizeDate.
const CanonicalDateLayout = "2006-01-02"

// NormalizeDate parses a human-written date and returns it as YYYY-MM-DD.
// Ambiguous numeric dates are read month first; when that yields an
// impossible month the day/month order is swapped. Unparseable input is
// returned unchanged.
func NormalizeDate(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	t, err := dateparse.ParseAny(trimmed,
		dateparse.PreferMonthFirst(true),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return s
	}
	return t.Format(CanonicalDateLayout)
}
