package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// BuildInvoiceJSONSchema describes the expected response shape. Values are
// scalars (the model often emits numbers for amounts); unknown keys are
// tolerated because normalization drops them anyway.
func BuildInvoiceJSONSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields)+1)
	for _, f := range fields {
		props[f] = scalarProp()
	}

	itemProps := make(map[string]any)
	for _, f := range constants.LineItemFields() {
		itemProps[f] = scalarProp()
	}
	itemProps[constants.FieldDescription] = scalarProp()

	props[constants.FieldLineItems] = map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": itemProps,
		},
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func scalarProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "boolean"}}
}

// ValidateJSONAgainstSchema validates data against schemaMap.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("invoice.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
