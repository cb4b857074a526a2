package llm

import (
	"context"
	"encoding/json"
)

// RawExtraction is what the model returned, after lenient normalization.
// Header holds only requested fields with a scalar value. LineItems follows
// the fixed per-item schema and never contains an all-empty item.
type RawExtraction struct {
	Header    map[string]string   `json:"header"`
	LineItems []map[string]string `json:"line_items,omitempty"`
	// Content is the model's message body as received.
	Content string `json:"-"`
}

// JSON renders the extraction for the invoice's raw_extraction column.
func (r RawExtraction) JSON() json.RawMessage {
	b, err := json.Marshal(r)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

// Empty reports whether nothing usable was extracted.
func (r RawExtraction) Empty() bool {
	return len(r.Header) == 0 && len(r.LineItems) == 0
}

// FieldExtractor is the interface the pipeline depends on. Transport
// failures are errors; malformed model output degrades to an empty result.
type FieldExtractor interface {
	Extract(ctx context.Context, fields []string, text string) (RawExtraction, error)
}
