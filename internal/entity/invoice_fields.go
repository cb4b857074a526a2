package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// columnToField maps persisted header columns onto canonical fields.
var columnToField = func() map[string]string {
	m := make(map[string]string, len(constants.HeaderColumnFor))
	for f, c := range constants.HeaderColumnFor {
		m[c] = f
	}
	return m
}()

// Values returns every update-addressable column as text, including priority.
// Two invoices with equal Values are equal for edit purposes.
func (inv *Invoice) Values() map[string]string {
	out := make(map[string]string, len(constants.AllowedUpdateFields)+1)
	for col, field := range columnToField {
		out[col] = inv.Header.Get(field)
	}
	out[constants.ColRemarks] = inv.Remarks
	out[constants.ColSelectedLineItems] = encodeLineItems(inv.LineItems)
	out[constants.ColPaymentStatus] = string(inv.PaymentStatus)
	if inv.AmountPaid.Valid {
		out[constants.ColAmountPaid] = inv.AmountPaid.Decimal.StringFixed(2)
	} else {
		out[constants.ColAmountPaid] = ""
	}
	out[constants.ColPaidAt] = formatTime(inv.PaidAt)
	out[constants.ColPriority] = string(inv.Priority)
	return out
}

// Snapshot is Values plus the file key and workflow columns; used for audit before/after.
func (inv *Invoice) Snapshot() map[string]string {
	out := inv.Values()
	out[constants.ColFilePath] = inv.FilePath
	out[constants.ColStatus] = string(inv.Status)
	out[constants.ColIsSaved] = strconv.FormatBool(inv.IsSaved)
	out[constants.ColSubmittedAt] = formatTime(inv.SubmittedAt)
	out[constants.ColApprovedAt] = formatTime(inv.ApprovedAt)
	if inv.ApprovedBy.Valid {
		out[constants.ColApprovedBy] = inv.ApprovedBy.UUID.String()
	} else {
		out[constants.ColApprovedBy] = ""
	}
	out[constants.ColApprovalRemarks] = inv.ApprovalRemarks
	out[constants.ColRejectionRemarks] = inv.RejectionRemarks
	return out
}

// Apply writes one allow-listed column. Callers check the allow-list; Apply
// only rejects values it cannot represent.
func (inv *Invoice) Apply(col, value string) error {
	if field, ok := columnToField[col]; ok {
		inv.Header.Set(field, value)
		return nil
	}
	switch col {
	case constants.ColRemarks:
		inv.Remarks = value
	case constants.ColSelectedLineItems:
		items, err := decodeLineItems(value)
		if err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
		inv.LineItems = items
	case constants.ColPaymentStatus:
		ps := constants.PaymentStatus(strings.ToUpper(strings.TrimSpace(value)))
		if ps != "" && !ps.Valid() {
			return fmt.Errorf("%s: unknown value %q", col, value)
		}
		inv.PaymentStatus = ps
	case constants.ColAmountPaid:
		v := strings.TrimSpace(value)
		if v == "" {
			inv.AmountPaid = decimal.NullDecimal{}
			return nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
		inv.AmountPaid = decimal.NewNullDecimal(d)
	case constants.ColPaidAt:
		t, err := parseTime(value)
		if err != nil {
			return fmt.Errorf("%s: %w", col, err)
		}
		inv.PaidAt = t
	case constants.ColPriority:
		p := constants.Priority(strings.ToLower(strings.TrimSpace(value)))
		if !p.Valid() {
			return fmt.Errorf("%s: unknown value %q", col, value)
		}
		inv.Priority = p
	default:
		return fmt.Errorf("column %q is not writable", col)
	}
	return nil
}

// InheritHeader copies the invoice-level columns among cols from the header
// onto every line item. Per-item columns are left alone.
func (inv *Invoice) InheritHeader(cols []string) {
	for _, col := range cols {
		field, ok := columnToField[col]
		if !ok || !constants.IsInvoiceLevel(field) {
			continue
		}
		v := inv.Header.Get(field)
		for i := range inv.LineItems {
			inv.LineItems[i].Set(field, v)
		}
	}
}

func encodeLineItems(items []LineRecord) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeLineItems(s string) ([]LineRecord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var items []LineRecord
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}
