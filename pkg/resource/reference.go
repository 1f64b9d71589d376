package resource

import (
	"encoding/json"
	"math"
)

// ValueKind classifies a stored property value.
type ValueKind int

// Property value variants.
const (
	AbsentValue ValueKind = iota
	ScalarValue
	ObjectValue
	ReferenceValue
	ListValue
)

func (k ValueKind) String() string {
	switch k {
	case ScalarValue:
		return "scalar"
	case ObjectValue:
		return "object"
	case ReferenceValue:
		return "reference"
	case ListValue:
		return "list"
	default:
		return "absent"
	}
}

// Reference is a link to another resource, stored as {"href": ...}.
// It is resolved through the DataStore on demand and never held as a pointer.
type Reference struct {
	Href string
}

// Map returns the stored form of the reference.
func (r Reference) Map() map[string]any {
	return map[string]any{HrefProperty: r.Href}
}

// AsReference reports whether v is a mapping carrying a non-empty string href.
func AsReference(v any) (Reference, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return Reference{}, false
	}
	href, ok := m[HrefProperty].(string)
	if !ok || href == "" {
		return Reference{}, false
	}
	return Reference{Href: href}, true
}

// Classify returns the variant of a stored property value.
// A mapping is a reference when it carries an href, otherwise a nested object.
func Classify(v any) ValueKind {
	switch v.(type) {
	case nil:
		return AbsentValue
	case map[string]any:
		if _, ok := AsReference(v); ok {
			return ReferenceValue
		}
		return ObjectValue
	case []any:
		return ListValue
	default:
		return ScalarValue
	}
}

// toInt converts the numeric shapes JSON decoding and callers produce.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}
