package constants

// InvoiceStatus is the lifecycle state of an invoice.
// Stable values (store these exact strings in DB).
type InvoiceStatus string

const (
	StatusExtracted InvoiceStatus = "extracted" // produced by the pipeline, not yet saved
	StatusDraft     InvoiceStatus = "draft"     // saved by the uploader
	StatusPending   InvoiceStatus = "pending"   // submitted for approval
	StatusApproved  InvoiceStatus = "approved"  // terminal
	StatusRejected  InvoiceStatus = "rejected"  // terminal
)

var invoiceStatuses = []InvoiceStatus{StatusExtracted, StatusDraft, StatusPending, StatusApproved, StatusRejected}

func (s InvoiceStatus) Valid() bool {
	for _, v := range invoiceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s InvoiceStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decided reports whether an approver has acted on the invoice.
func (s InvoiceStatus) Decided() bool { return s.Terminal() }

// InvoiceStatuses lists all statuses in lifecycle order.
func InvoiceStatuses() []InvoiceStatus {
	out := make([]InvoiceStatus, len(invoiceStatuses))
	copy(out, invoiceStatuses)
	return out
}

// Priority of an invoice in the approval queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is assigned to every new invoice.
const DefaultPriority = PriorityLow

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of an invoice. It is orthogonal to InvoiceStatus.
type PaymentStatus string

const (
	PaymentDueNotPaid PaymentStatus = "DUE_NOT_PAID"
	PaymentDuePartial PaymentStatus = "DUE_PARTIAL"
	PaymentDueFull    PaymentStatus = "DUE_FULL"
	PaymentNotDue     PaymentStatus = "NOT_DUE"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentDueNotPaid, PaymentDuePartial, PaymentDueFull, PaymentNotDue:
		return true
	}
	return false
}

// PageProvenance records which text source won for a page.
type PageProvenance string

const (
	ProvenanceNative       PageProvenance = "native"
	ProvenanceOCRRecovered PageProvenance = "ocr-recovered"
)

// ExtractionMethod records how an invoice's fields were produced.
type ExtractionMethod string

const (
	ExtractionOpenAI       ExtractionMethod = "openai"
	ExtractionManualReview ExtractionMethod = "manual_review"
)
