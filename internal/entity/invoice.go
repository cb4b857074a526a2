package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// Invoice is the persisted workflow entity. Header carries the editable
// invoice-level columns; LineItems is the owned line-record set.
type Invoice struct {
	ID           uuid.UUID     `json:"id"`
	Header       LineRecord    `json:"header"`
	LineItems    []LineRecord  `json:"line_items"`
	Remarks      string        `json:"remarks,omitempty"`
	FilePath     string        `json:"file_path"`
	UploadedBy   uuid.UUID     `json:"uploaded_by"`
	DepartmentID uuid.NullUUID `json:"department_id"`

	Status           constants.InvoiceStatus `json:"status"`
	Priority         constants.Priority      `json:"priority"`
	IsSaved          bool                    `json:"is_saved"`
	ApprovedBy       uuid.NullUUID           `json:"approved_by"`
	SubmittedAt      *time.Time              `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time              `json:"approved_at,omitempty"`
	ApprovalRemarks  string                  `json:"approval_remarks,omitempty"`
	RejectionRemarks string                  `json:"rejection_remarks,omitempty"`

	PaymentStatus constants.PaymentStatus `json:"payment_status,omitempty"`
	AmountPaid    decimal.NullDecimal     `json:"amount_paid"`
	PaidAt        *time.Time              `json:"paid_at,omitempty"`

	RawText          string                     `json:"-"`
	RawExtraction    json.RawMessage            `json:"raw_extraction,omitempty"`
	ExtractionMethod constants.ExtractionMethod `json:"extraction_method"`
	UsedOCR          bool                       `json:"used_ocr"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckInvariants reports the first lifecycle invariant the invoice breaks.
func (inv *Invoice) CheckInvariants() error {
	if !inv.Status.Valid() {
		return fmt.Errorf("unknown status %q", inv.Status)
	}
	if !inv.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", inv.Priority)
	}
	if inv.PaymentStatus != "" && !inv.PaymentStatus.Valid() {
		return fmt.Errorf("unknown payment status %q", inv.PaymentStatus)
	}
	decided := inv.Status.Decided()
	if !decided && (inv.ApprovedBy.Valid || inv.ApprovedAt != nil) {
		return fmt.Errorf("approver set on %s invoice", inv.Status)
	}
	if decided && (!inv.ApprovedBy.Valid || inv.ApprovedAt == nil) {
		return fmt.Errorf("%s invoice has no approver", inv.Status)
	}
	if inv.Status != constants.StatusRejected && inv.RejectionRemarks != "" {
		return fmt.Errorf("rejection remarks on %s invoice", inv.Status)
	}
	if inv.Status == constants.StatusRejected && inv.RejectionRemarks == "" {
		return fmt.Errorf("rejected invoice has no remarks")
	}
	if inv.Status == constants.StatusPending && inv.SubmittedAt == nil {
		return fmt.Errorf("pending invoice has no submitted_at")
	}
	return nil
}

// DisplayNumber is the invoice number, or the id when none was extracted.
func (inv *Invoice) DisplayNumber() string {
	if inv.Header.InvoiceNumber != "" {
		return inv.Header.InvoiceNumber
	}
	return inv.ID.String()
}

// Clone returns a deep copy.
func (inv *Invoice) Clone() *Invoice {
	c := *inv
	c.LineItems = append([]LineRecord(nil), inv.LineItems...)
	c.RawExtraction = append(json.RawMessage(nil), inv.RawExtraction...)
	c.SubmittedAt = cloneTime(inv.SubmittedAt)
	c.ApprovedAt = cloneTime(inv.ApprovedAt)
	c.PaidAt = cloneTime(inv.PaidAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
