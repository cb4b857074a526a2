package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

func newInvoice() *Invoice {
	return &Invoice{
		ID:         uuid.New(),
		Status:     constants.StatusExtracted,
		Priority:   constants.DefaultPriority,
		UploadedBy: uuid.New(),
	}
}

func TestCheckInvariants(t *testing.T) {
	now := time.Now()

	inv := newInvoice()
	require.NoError(t, inv.CheckInvariants())

	inv.Status = constants.StatusPending
	assert.Error(t, inv.CheckInvariants(), "pending without submitted_at")
	inv.SubmittedAt = &now
	assert.NoError(t, inv.CheckInvariants())

	inv.ApprovedBy = uuid.NullUUID{UUID: uuid.New(), Valid: true}
	assert.Error(t, inv.CheckInvariants(), "approver on pending")

	inv.Status = constants.StatusApproved
	inv.ApprovedAt = &now
	assert.NoError(t, inv.CheckInvariants())

	inv.RejectionRemarks = "late"
	assert.Error(t, inv.CheckInvariants(), "rejection remarks on approved")

	inv.Status = constants.StatusRejected
	assert.NoError(t, inv.CheckInvariants())

	inv.Priority = "urgent"
	assert.Error(t, inv.CheckInvariants())
}

func TestApplyAndValues(t *testing.T) {
	inv := newInvoice()
	before := inv.Values()

	require.NoError(t, inv.Apply(constants.ColVendorName, "Acme Traders"))
	require.NoError(t, inv.Apply(constants.ColAmountPaid, "1180.5"))
	require.NoError(t, inv.Apply(constants.ColPaidAt, "2024-04-01"))
	require.NoError(t, inv.Apply(constants.ColPaymentStatus, "due_partial"))
	require.NoError(t, inv.Apply(constants.ColSelectedLineItems, `[{"Line_Item":"Cement","Total_Amount":"500"}]`))

	after := inv.Values()
	assert.NotEqual(t, before, after)
	assert.Equal(t, "Acme Traders", after[constants.ColVendorName])
	assert.Equal(t, "1180.50", after[constants.ColAmountPaid])
	assert.Equal(t, "2024-04-01T00:00:00Z", after[constants.ColPaidAt])
	assert.Equal(t, string(constants.PaymentDuePartial), after[constants.ColPaymentStatus])
	require.Len(t, inv.LineItems, 1)
	assert.Equal(t, "Cement", inv.LineItems[0].LineItem)

	assert.Error(t, inv.Apply(constants.ColAmountPaid, "lots"))
	assert.Error(t, inv.Apply(constants.ColPaymentStatus, "PAID"))
	assert.Error(t, inv.Apply(constants.ColPriority, "urgent"))
	assert.Error(t, inv.Apply(constants.ColStatus, "approved"))

	same := inv.Clone()
	require.NoError(t, same.Apply(constants.ColVendorName, "Acme Traders"))
	assert.Equal(t, inv.Values(), same.Values())
}

func TestFilePathIsNotWritable(t *testing.T) {
	inv := newInvoice()
	inv.FilePath = "uploads/own.pdf"
	assert.Error(t, inv.Apply(constants.ColFilePath, "uploads/other.pdf"))
	assert.Equal(t, "uploads/own.pdf", inv.FilePath)

	_, inValues := inv.Values()[constants.ColFilePath]
	assert.False(t, inValues)
	assert.Equal(t, "uploads/own.pdf", inv.Snapshot()[constants.ColFilePath])
}

func TestInheritHeader(t *testing.T) {
	inv := newInvoice()
	inv.LineItems = []LineRecord{
		{LineItem: "Cement", TotalAmount: "500"},
		{LineItem: "Sand", TotalAmount: "680"},
	}
	require.NoError(t, inv.Apply(constants.ColVendorName, "Acme Traders"))
	require.NoError(t, inv.Apply(constants.ColTDS, "118"))
	require.NoError(t, inv.Apply(constants.ColLineItem, "Steel"))

	inv.InheritHeader([]string{constants.ColVendorName, constants.ColTDS, constants.ColLineItem, constants.ColRemarks})
	for _, item := range inv.LineItems {
		assert.Equal(t, "Acme Traders", item.VendorName)
		assert.Equal(t, "118", item.TDS)
	}
	assert.Equal(t, "Cement", inv.LineItems[0].LineItem)
	assert.Equal(t, "Sand", inv.LineItems[1].LineItem)
}

func TestLineRecordRowOrder(t *testing.T) {
	r := LineRecord{SNo: 3, InvoiceNumber: "INV-1", Filename: "a.pdf", TotalAmount: "10"}
	row := r.Row()
	require.Len(t, row, len(constants.CanonicalFields()))
	assert.Equal(t, "3", row[0])
	assert.Equal(t, "INV-1", row[2])
	assert.Equal(t, "10", row[13])
	assert.Equal(t, "a.pdf", row[16])
}
