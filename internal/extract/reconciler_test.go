package extract

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
	"github.com/joseph-ayodele/invoice-tracker/internal/validation"
)

func newReconciler() *Reconciler {
	return NewReconciler(validation.NewGSTINValidator(validation.DefaultOrgIdentity),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExpandInheritsHeaderPerItem(t *testing.T) {
	set := FieldSet{
		Header: map[string]string{
			constants.FieldVendorName:    "Acme Traders",
			constants.FieldInvoiceNumber: "INV-77",
			constants.FieldInvoiceDate:   "03/04/2024",
			constants.FieldGSTNumber:     "29ABCDE1234F1Z5",
			constants.FieldPONumber:      "PO-5",
			constants.FieldGSTPercent:    "18",
			constants.FieldTDS:           "10",
		},
		Items: []map[string]string{
			{constants.FieldLineItem: "Cement", constants.FieldBasicAmount: "1000", constants.FieldCGSTAmount: "90", constants.FieldSGSTAmount: "90", constants.FieldTotalAmount: "1180", constants.FieldHSNSAC: "2523"},
			{constants.FieldLineItem: "Sand", constants.FieldGSTPercent: "5", constants.FieldHSNSAC: "HSN 2505"},
		},
	}

	recs := newReconciler().Expand(set, "/uploads/tmp/acme.pdf")
	require.Len(t, recs, 2)

	for _, r := range recs {
		assert.Equal(t, "Acme Traders", r.VendorName)
		assert.Equal(t, "INV-77", r.InvoiceNumber)
		assert.Equal(t, "2024-03-04", r.InvoiceDate)
		assert.Equal(t, "29ABCDE1234F1Z5", r.GSTNumber)
		assert.Equal(t, "PO-5", r.PONumber)
		assert.Equal(t, "acme.pdf", r.Filename)
		assert.Empty(t, r.TDS)
		assert.Empty(t, r.NetPayable)
		assert.Zero(t, r.SNo)
	}
	assert.Equal(t, "Cement", recs[0].LineItem)
	assert.Equal(t, "18", recs[0].GSTPercent, "header value inherited")
	assert.Equal(t, "2523", recs[0].HSNSAC)
	assert.Equal(t, "5", recs[1].GSTPercent, "item value wins")
	assert.Empty(t, recs[1].HSNSAC, "non-numeric HSN blanked")
}

func TestExpandWithoutItemsYieldsOneRecord(t *testing.T) {
	set := FieldSet{Header: map[string]string{
		constants.FieldInvoiceNumber: "Invoice",
		constants.FieldGSTNumber:     "29AAECS5013J1Z5",
	}}
	recs := newReconciler().Expand(set, "x.pdf")
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].InvoiceNumber, "all-letter invoice number rejected")
	assert.Empty(t, recs[0].GSTNumber, "organization's own GSTIN rejected")
}

func TestExpandEmptyExtractionStillProducesRecord(t *testing.T) {
	recs := newReconciler().Expand(FieldSet{}, "blank.pdf")
	require.Len(t, recs, 1)
	assert.Equal(t, "blank.pdf", recs[0].Filename)
	assert.Empty(t, recs[0].VendorName)
}

func TestExpandChecksAmountsPerRecord(t *testing.T) {
	set := FieldSet{
		Header: map[string]string{},
		Items: []map[string]string{
			{constants.FieldBasicAmount: "1,200", constants.FieldTotalAmount: "1,000"},
			{constants.FieldBasicAmount: "1000", constants.FieldIGSTAmount: "180", constants.FieldTotalAmount: "1500", constants.FieldGSTPercent: "18%"},
			{constants.FieldBasicAmount: "1000", constants.FieldIGSTAmount: "180", constants.FieldTotalAmount: "1180.50", constants.FieldGSTPercent: "12"},
		},
	}
	recs := newReconciler().Expand(set, "a.pdf")
	require.Len(t, recs, 3)

	assert.Empty(t, recs[0].BasicAmount)
	assert.Equal(t, "1,000", recs[0].TotalAmount)

	assert.Empty(t, recs[1].TotalAmount)
	assert.Equal(t, "18%", recs[1].GSTPercent)

	assert.Equal(t, "1180.50", recs[2].TotalAmount)
	assert.Empty(t, recs[2].GSTPercent)
}

func TestExpandDoesNotMutateInput(t *testing.T) {
	set := FieldSet{
		Header: map[string]string{constants.FieldInvoiceDate: "2024/01/31"},
		Items:  []map[string]string{{constants.FieldHSNSAC: "abc"}},
	}
	_ = newReconciler().Expand(set, "a.pdf")
	assert.Equal(t, "2024/01/31", set.Header[constants.FieldInvoiceDate])
	assert.Equal(t, "abc", set.Items[0][constants.FieldHSNSAC])
}

func TestAssignSequence(t *testing.T) {
	recs := newReconciler().Expand(FieldSet{Items: []map[string]string{{"Line_Item": "a"}, {"Line_Item": "b"}}}, "a.pdf")
	AssignSequence(recs)
	assert.Equal(t, 1, recs[0].SNo)
	assert.Equal(t, 2, recs[1].SNo)
}

func TestFromRawCopies(t *testing.T) {
	raw := llm.RawExtraction{
		Header:    map[string]string{"Vendor_Name": "A"},
		LineItems: []map[string]string{{"Line_Item": "x"}},
	}
	fs := FromRaw(raw)
	raw.Header["Vendor_Name"] = "B"
	raw.LineItems[0]["Line_Item"] = "y"
	assert.Equal(t, "A", fs.Header["Vendor_Name"])
	assert.Equal(t, "x", fs.Items[0]["Line_Item"])
}
