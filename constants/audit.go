package constants

// AuditAction is the verb recorded on every audit row.
type AuditAction string

const (
	AuditUploaded   AuditAction = "uploaded"
	AuditSubmitted  AuditAction = "submitted"
	AuditSavedDraft AuditAction = "saved_draft"
	AuditApproved   AuditAction = "approved"
	AuditRejected   AuditAction = "rejected"
	AuditEdited     AuditAction = "edited"
	AuditDeleted    AuditAction = "deleted"
	AuditViewed     AuditAction = "viewed"
	AuditDownloaded AuditAction = "downloaded"
)

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotifyInvoiceUploaded  NotificationType = "invoice_uploaded"
	NotifyInvoiceSubmitted NotificationType = "invoice_submitted"
	NotifyInvoiceApproved  NotificationType = "invoice_approved"
	NotifyInvoiceRejected  NotificationType = "invoice_rejected"
)
