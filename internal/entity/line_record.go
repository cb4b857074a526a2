package entity

import (
	"strconv"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// LineRecord is one exported row: header fields inherited by a single line item.
type LineRecord struct {
	SNo           int    `json:"S_No,omitempty"`
	InvoiceDate   string `json:"Invoice_Date"`
	InvoiceNumber string `json:"Invoice_Number"`
	PONumber      string `json:"PO_Number"`
	GSTNumber     string `json:"GST_Number"`
	VendorName    string `json:"Vendor_Name"`
	LineItem      string `json:"Line_Item"`
	HSNSAC        string `json:"HSN_SAC"`
	GSTPercent    string `json:"gst_percent"`
	IGSTAmount    string `json:"IGST_Amount"`
	CGSTAmount    string `json:"CGST_Amount"`
	SGSTAmount    string `json:"SGST_Amount"`
	BasicAmount   string `json:"Basic_Amount"`
	TotalAmount   string `json:"Total_Amount"`
	TDS           string `json:"TDS"`
	NetPayable    string `json:"Net_Payable"`
	Filename      string `json:"filename"`
}

func (r *LineRecord) ref(field string) *string {
	switch field {
	case constants.FieldInvoiceDate:
		return &r.InvoiceDate
	case constants.FieldInvoiceNumber:
		return &r.InvoiceNumber
	case constants.FieldPONumber:
		return &r.PONumber
	case constants.FieldGSTNumber:
		return &r.GSTNumber
	case constants.FieldVendorName:
		return &r.VendorName
	case constants.FieldLineItem:
		return &r.LineItem
	case constants.FieldHSNSAC:
		return &r.HSNSAC
	case constants.FieldGSTPercent:
		return &r.GSTPercent
	case constants.FieldIGSTAmount:
		return &r.IGSTAmount
	case constants.FieldCGSTAmount:
		return &r.CGSTAmount
	case constants.FieldSGSTAmount:
		return &r.SGSTAmount
	case constants.FieldBasicAmount:
		return &r.BasicAmount
	case constants.FieldTotalAmount:
		return &r.TotalAmount
	case constants.FieldTDS:
		return &r.TDS
	case constants.FieldNetPayable:
		return &r.NetPayable
	case constants.FieldFilename:
		return &r.Filename
	}
	return nil
}

// Get returns the value of a canonical field. S_No is "" until assigned.
func (r LineRecord) Get(field string) string {
	if field == constants.FieldSNo {
		if r.SNo == 0 {
			return ""
		}
		return strconv.Itoa(r.SNo)
	}
	if p := r.ref(field); p != nil {
		return *p
	}
	return ""
}

// Set assigns a canonical field. Unknown fields are ignored.
func (r *LineRecord) Set(field, value string) {
	if field == constants.FieldSNo {
		n, err := strconv.Atoi(value)
		if err == nil && n > 0 {
			r.SNo = n
		} else {
			r.SNo = 0
		}
		return
	}
	if p := r.ref(field); p != nil {
		*p = value
	}
}

// Row returns the record's values in canonical export order.
func (r LineRecord) Row() []string {
	fields := constants.CanonicalFields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = r.Get(f)
	}
	return out
}
