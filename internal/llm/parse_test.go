package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantKey string
	}{
		{"direct", `{"Invoice_Number":"A1"}`, "Invoice_Number"},
		{"wrapped in prose", `Here you go: {"Invoice_Number":"A1"} hope it helps`, "Invoice_Number"},
		{"fenced", "```json\n{\"Vendor_Name\":\"X\"}\n```", "Vendor_Name"},
		{"garbage", `no json here`, ""},
		{"array", `[1,2,3]`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.content)
			require.NotNil(t, got)
			if tt.wantKey == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.wantKey)
		})
	}
}

func TestCoerceScalar(t *testing.T) {
	s, ok := CoerceScalar("  INV 1 ")
	assert.True(t, ok)
	assert.Equal(t, "INV 1", s)

	s, ok = CoerceScalar(json.Number("1180.50"))
	assert.True(t, ok)
	assert.Equal(t, "1180.50", s)

	s, ok = CoerceScalar(18.0)
	assert.True(t, ok)
	assert.Equal(t, "18", s)

	s, ok = CoerceScalar(true)
	assert.True(t, ok)
	assert.Equal(t, "true", s)

	_, ok = CoerceScalar(map[string]any{"a": 1})
	assert.False(t, ok)
	_, ok = CoerceScalar([]any{"a"})
	assert.False(t, ok)
	_, ok = CoerceScalar(nil)
	assert.False(t, ok)
}

func TestNormalizeLineItems(t *testing.T) {
	items := NormalizeLineItems([]any{
		map[string]any{"Description": "Steel rods", "HSN_SAC": "7214", "Total_Amount": json.Number("1180")},
		"Transport charges",
		map[string]any{"Line_Item": "", "Unknown": "x"},
		map[string]any{"Line_Item": "Bolts", "Description": "ignored"},
	})
	require.Len(t, items, 3)
	assert.Equal(t, "Steel rods", items[0][constants.FieldLineItem])
	assert.Equal(t, "7214", items[0][constants.FieldHSNSAC])
	assert.Equal(t, "1180", items[0][constants.FieldTotalAmount])
	assert.Equal(t, "Transport charges", items[1][constants.FieldLineItem])
	assert.Equal(t, "", items[1][constants.FieldTotalAmount])
	assert.Equal(t, "Bolts", items[2][constants.FieldLineItem])
	assert.NotContains(t, items[0], "Unknown")
}

func TestNormalizeLineItemsScalarValue(t *testing.T) {
	items := NormalizeLineItems("Consulting")
	require.Len(t, items, 1)
	assert.Equal(t, "Consulting", items[0][constants.FieldLineItem])
	assert.Nil(t, NormalizeLineItems(nil))
}

func TestNormalizeKeepsRequestedScalarFieldsOnly(t *testing.T) {
	raw := ParseResponse(`{"Invoice_Number":"INV-7","Vendor_Name":null,"GST_Number":{"a":1},"Bogus":"x","Line_Item":"Cement bags"}`)
	out := Normalize(raw, constants.ExtractableFields())

	assert.Equal(t, map[string]string{"Invoice_Number": "INV-7", "Line_Item": "Cement bags"}, out.Header)
	require.Len(t, out.LineItems, 1, "header Line_Item becomes the single item")
	assert.Equal(t, "Cement bags", out.LineItems[0][constants.FieldLineItem])
}

func TestNormalizePrefersExplicitLineItems(t *testing.T) {
	raw := ParseResponse(`{"Line_Item":"header","Line_Items":[]}`)
	out := Normalize(raw, constants.ExtractableFields())
	assert.Empty(t, out.LineItems)
}

func TestSchemaAcceptsScalarsAndRejectsObjects(t *testing.T) {
	schema := BuildInvoiceJSONSchema(constants.ExtractableFields())
	assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(`{"Total_Amount":1180,"Invoice_Number":"A","Line_Items":[{"Basic_Amount":"1000"}]}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"Total_Amount":{"v":1}}`)))
	assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"Line_Items":"x"}`)))
}

func TestBuildSystemPromptListsFieldsAndIdentity(t *testing.T) {
	p := BuildSystemPrompt([]string{"Invoice_Number", "PO_Number"}, "AAECS5013J")
	assert.Contains(t, p, "Fields: Invoice_Number, PO_Number")
	assert.Contains(t, p, "AAECS5013J")
	assert.Contains(t, p, "Never invent a PO number")
	assert.NotContains(t, BuildSystemPrompt([]string{"X"}, ""), "buyer's own identity")
}
