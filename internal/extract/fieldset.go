package extract

import (
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
)

// FieldSet is the raw per-document extraction: header fields keyed by
// canonical name plus ordered line items. Expansion never mutates it.
type FieldSet struct {
	Header map[string]string
	Items  []map[string]string
}

// FromRaw adapts a model extraction. The maps are copied.
func FromRaw(r llm.RawExtraction) FieldSet {
	fs := FieldSet{Header: copyMap(r.Header)}
	for _, it := range r.LineItems {
		fs.Items = append(fs.Items, copyMap(it))
	}
	return fs
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
