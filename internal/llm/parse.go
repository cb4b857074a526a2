package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// ParseResponse decodes the model's message body. It tries the whole body,
// then the span from the first '{' to the last '}', and otherwise yields an
// empty object. It never fails.
func ParseResponse(content string) map[string]any {
	s := strings.TrimSpace(content)
	if m, ok := decodeObject(s); ok {
		return m
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		if m, ok := decodeObject(s[start : end+1]); ok {
			return m
		}
	}
	return map[string]any{}
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return m, true
}

// CoerceScalar converts strings, numbers and booleans to a trimmed string.
// Anything else (objects, arrays, null) reports false.
func CoerceScalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func scalar(v any) string {
	s, _ := CoerceScalar(v)
	return s
}

// NormalizeLineItems maps any shape the model produced onto the fixed
// per-item schema. An object keeps known keys (Description stands in for a
// missing Line_Item); a scalar becomes the item's Line_Item. Items with no
// non-empty value are dropped.
func NormalizeLineItems(v any) []map[string]string {
	var elems []any
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		elems = t
	default:
		elems = []any{t}
	}

	out := make([]map[string]string, 0, len(elems))
	for _, elem := range elems {
		item := make(map[string]string, len(constants.LineItemFields()))
		if obj, ok := elem.(map[string]any); ok {
			for _, f := range constants.LineItemFields() {
				item[f] = scalar(obj[f])
			}
			if item[constants.FieldLineItem] == "" {
				item[constants.FieldLineItem] = scalar(obj[constants.FieldDescription])
			}
		} else {
			for _, f := range constants.LineItemFields() {
				item[f] = ""
			}
			item[constants.FieldLineItem] = scalar(elem)
		}
		if hasValue(item) {
			out = append(out, item)
		}
	}
	return out
}

func hasValue(m map[string]string) bool {
	for _, v := range m {
		if v != "" {
			return true
		}
	}
	return false
}

// Normalize reduces a decoded response to the requested fields. When
// Line_Items is absent, a header Line_Item becomes the single line item.
func Normalize(raw map[string]any, fields []string) RawExtraction {
	out := RawExtraction{Header: make(map[string]string)}
	for _, f := range fields {
		v, ok := raw[f]
		if !ok || v == nil {
			continue
		}
		if s, ok := CoerceScalar(v); ok {
			out.Header[f] = s
		}
	}

	if li, ok := raw[constants.FieldLineItems]; ok {
		out.LineItems = NormalizeLineItems(li)
	} else if name := out.Header[constants.FieldLineItem]; name != "" {
		out.LineItems = NormalizeLineItems([]any{name})
	}
	return out
}
