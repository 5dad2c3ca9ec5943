package value

import "sort"

// FromGo converts a generic Go value (as decoded from JSON by a subgraph
// transport, or produced by the introspection field-resolution helpers)
// into a Value tree. Maps become Objects with keys sorted for determinism
// (callers that need selection order build Objects directly via Set).
func FromGo(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromGo(e)
		}
		return ListOf(items)
	case map[string]any:
		o := NewObject()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			o.Set(k, FromGo(t[k]))
		}
		return FromObject(o)
	default:
		return String(sprint(t))
	}
}

func sprint(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// ToGo converts a Value tree into plain Go data (map[string]any / []any /
// scalars), suitable for JSON encoding by the HTTP gateway surface.
func ToGo(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindScalar:
		return v.Payload()
	case KindList:
		items := v.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = ToGo(it)
		}
		return out
	case KindObject:
		obj, _ := v.AsObject()
		out := make(map[string]any, obj.Len())
		for _, k := range obj.Keys() {
			fv, _ := obj.Get(k)
			out[k] = ToGo(fv)
		}
		return out
	default:
		return nil
	}
}
