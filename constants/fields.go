package constants

// Canonical extraction field names. Order of CanonicalFields is the export column order.
const (
	FieldSNo           = "S_No"
	FieldInvoiceDate   = "Invoice_Date"
	FieldInvoiceNumber = "Invoice_Number"
	FieldPONumber      = "PO_Number"
	FieldGSTNumber     = "GST_Number"
	FieldVendorName    = "Vendor_Name"
	FieldLineItem      = "Line_Item"
	FieldHSNSAC        = "HSN_SAC"
	FieldGSTPercent    = "gst_percent"
	FieldIGSTAmount    = "IGST_Amount"
	FieldCGSTAmount    = "CGST_Amount"
	FieldSGSTAmount    = "SGST_Amount"
	FieldBasicAmount   = "Basic_Amount"
	FieldTotalAmount   = "Total_Amount"
	FieldTDS           = "TDS"
	FieldNetPayable    = "Net_Payable"
	FieldFilename      = "filename"

	// FieldLineItems is the optional list in the raw model response.
	FieldLineItems = "Line_Items"
	// FieldDescription is accepted as an alias of Line_Item inside line items.
	FieldDescription = "Description"
)

var canonicalFields = []string{
	FieldSNo,
	FieldInvoiceDate,
	FieldInvoiceNumber,
	FieldPONumber,
	FieldGSTNumber,
	FieldVendorName,
	FieldLineItem,
	FieldHSNSAC,
	FieldGSTPercent,
	FieldIGSTAmount,
	FieldCGSTAmount,
	FieldSGSTAmount,
	FieldBasicAmount,
	FieldTotalAmount,
	FieldTDS,
	FieldNetPayable,
	FieldFilename,
}

// lineItemFields is the fixed per-item schema.
var lineItemFields = []string{
	FieldLineItem,
	FieldHSNSAC,
	FieldGSTPercent,
	FieldBasicAmount,
	FieldCGSTAmount,
	FieldSGSTAmount,
	FieldIGSTAmount,
	FieldTotalAmount,
}

// invoiceLevelFields hold one value per invoice and are repeated on every
// line record.
var invoiceLevelFields = map[string]struct{}{
	FieldInvoiceDate: {}, FieldInvoiceNumber: {}, FieldPONumber: {}, FieldGSTNumber: {},
	FieldVendorName: {}, FieldTDS: {}, FieldNetPayable: {}, FieldFilename: {},
}

// IsInvoiceLevel reports whether field is shared by all line records of an invoice.
func IsInvoiceLevel(field string) bool {
	_, ok := invoiceLevelFields[field]
	return ok
}

// CanonicalFields returns the canonical schema in export order.
func CanonicalFields() []string {
	out := make([]string, len(canonicalFields))
	copy(out, canonicalFields)
	return out
}

// LineItemFields returns the per-item schema.
func LineItemFields() []string {
	out := make([]string, len(lineItemFields))
	copy(out, lineItemFields)
	return out
}

// ExtractableFields are the fields the model is asked for. S_No, TDS,
// Net_Payable and filename are never inferred from the document.
func ExtractableFields() []string {
	out := make([]string, 0, len(canonicalFields))
	for _, f := range canonicalFields {
		switch f {
		case FieldSNo, FieldTDS, FieldNetPayable, FieldFilename:
			continue
		}
		out = append(out, f)
	}
	return out
}

// Persisted column names accepted in update payloads.
const (
	ColSNo               = "s_no"
	ColInvoiceDate       = "invoice_date"
	ColInvoiceNumber     = "invoice_number"
	ColPONumber          = "po_number"
	ColGSTNumber         = "gst_number"
	ColVendorName        = "vendor_name"
	ColLineItem          = "line_item"
	ColHSNSAC            = "hsn_sac"
	ColGSTPercent        = "gst_percent"
	ColIGSTAmount        = "igst_amount"
	ColCGSTAmount        = "cgst_amount"
	ColSGSTAmount        = "sgst_amount"
	ColBasicAmount       = "basic_amount"
	ColTotalAmount       = "total_amount"
	ColTDS               = "tds"
	ColNetPayable        = "net_payable"
	ColFilename          = "filename"
	ColFilePath          = "file_path"
	ColRemarks           = "remarks"
	ColSelectedLineItems = "selected_line_items"
	ColPaymentStatus     = "payment_status"
	ColAmountPaid        = "amount_paid"
	ColPaidAt            = "paid_at"

	ColStatus           = "status"
	ColApprovedBy       = "approved_by"
	ColApprovedAt       = "approved_at"
	ColSubmittedAt      = "submitted_at"
	ColRejectionRemarks = "rejection_remarks"
	ColApprovalRemarks  = "approval_remarks"
	ColIsSaved          = "is_saved"
	ColPriority         = "priority"

	// ColDepartmentID may be sent as request context; it is never written.
	ColDepartmentID = "department_id"
)

// AllowedUpdateFields are the business fields a normal edit may change.
var AllowedUpdateFields = map[string]struct{}{
	ColSNo: {}, ColInvoiceDate: {}, ColInvoiceNumber: {}, ColPONumber: {}, ColGSTNumber: {},
	ColVendorName: {}, ColLineItem: {}, ColHSNSAC: {}, ColGSTPercent: {}, ColIGSTAmount: {},
	ColCGSTAmount: {}, ColSGSTAmount: {}, ColBasicAmount: {}, ColTotalAmount: {}, ColTDS: {},
	ColNetPayable: {}, ColFilename: {}, ColRemarks: {}, ColSelectedLineItems: {},
	ColPaymentStatus: {}, ColAmountPaid: {}, ColPaidAt: {},
}

// WorkflowFields are system-managed and only written by workflow operations.
var WorkflowFields = map[string]struct{}{
	ColStatus: {}, ColApprovedBy: {}, ColApprovedAt: {}, ColSubmittedAt: {},
	ColRejectionRemarks: {}, ColApprovalRemarks: {}, ColIsSaved: {}, ColPriority: {},
}

// PaymentFields may be amended by finance even after approval.
var PaymentFields = map[string]struct{}{
	ColPaymentStatus: {}, ColAmountPaid: {}, ColPaidAt: {},
}

// HeaderColumnFor maps a canonical field to its persisted column.
var HeaderColumnFor = map[string]string{
	FieldSNo:           ColSNo,
	FieldInvoiceDate:   ColInvoiceDate,
	FieldInvoiceNumber: ColInvoiceNumber,
	FieldPONumber:      ColPONumber,
	FieldGSTNumber:     ColGSTNumber,
	FieldVendorName:    ColVendorName,
	FieldLineItem:      ColLineItem,
	FieldHSNSAC:        ColHSNSAC,
	FieldGSTPercent:    ColGSTPercent,
	FieldIGSTAmount:    ColIGSTAmount,
	FieldCGSTAmount:    ColCGSTAmount,
	FieldSGSTAmount:    ColSGSTAmount,
	FieldBasicAmount:   ColBasicAmount,
	FieldTotalAmount:   ColTotalAmount,
	FieldTDS:           ColTDS,
	FieldNetPayable:    ColNetPayable,
	FieldFilename:      ColFilename,
}
