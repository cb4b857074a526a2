package llm

import (
	"strings"
)

// BuildSystemPrompt composes the instructions for invoice extraction. fields
// are the top-level keys the model may return; orgIdentity is the buyer's own
// PAN-level identity, which must never be reported as the vendor GSTIN.
func BuildSystemPrompt(fields []string, orgIdentity string) string {
	parts := []string{
		"You are an invoice extraction assistant.",
		"Return STRICT minified JSON (no markdown, no code fences).",
		"Top-level keys: only those in the 'Fields' list (omit keys you cannot find) plus an optional key 'Line_Items' when there are line items.",

		// Field mapping:
		"If you see 'Billing No', 'Bill No', 'Tax Invoice', or 'Tax Invoice No', map them to 'Invoice_Number'.",
		"If there are line items, return \"Line_Items\": [{\"Line_Item\": <string>, \"HSN_SAC\": <string>, \"gst_percent\": <string or number>, " +
			"\"Basic_Amount\": <string or number>, \"CGST_Amount\": <string or number>, \"SGST_Amount\": <string or number>, " +
			"\"IGST_Amount\": <string or number>, \"Total_Amount\": <string or number>}, ...].",
		"HSN or SAC may be written in full as 'Services Accounting Code' or 'Harmonized System of Nomenclature'; always map such values to 'HSN_SAC'.",

		// Hygiene:
		"Never invent values. If a particular tax (CGST/SGST/IGST) is not present, omit it.",
		"For any field not present or not confidently identifiable, omit the key entirely.",

		// Amount consistency:
		"'Basic_Amount' must never be greater than 'Total_Amount'.",
		"'Total_Amount' should equal 'Basic_Amount' + CGST_Amount + SGST_Amount + IGST_Amount (omit taxes if not present).",
		"'gst_percent' should match the ratio of total GST (CGST+SGST+IGST) over Basic_Amount.",
		"If any inconsistency is found, omit the incorrect field instead of inventing values.",

		// GSTIN:
		"OCR mistakes may occur in GST numbers. A valid GSTIN is 2 digits (state code) + 10-character PAN + 1 entity code (0-9/A-Z) + 'Z' + 1 check character.",

		// PO:
		"If a PO number / purchase order number is present, map it to 'PO_Number'. Never invent a PO number.",
	}
	if id := strings.TrimSpace(orgIdentity); id != "" {
		parts = append(parts,
			"The buyer's own identity is "+id+": if multiple GSTINs are present, discard any containing it, and never report the buyer as the vendor.")
	}
	parts = append(parts, "Fields: "+strings.Join(fields, ", "))
	return strings.Join(parts, "\n")
}
