// Package value implements the gateway's recursive input/response value
// tree: null, scalar, list, and object variants, with objects preserving
// insertion order so response fields come back in selection order.
package value

import "fmt"

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindScalar:
		return "Scalar"
	case KindList:
		return "List"
	case KindObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// ScalarKind further discriminates a KindScalar Value.
type ScalarKind int

const (
	ScalarInt ScalarKind = iota
	ScalarFloat
	ScalarString
	ScalarBool
	ScalarEnum
)

// Value is the recursive sum described in spec §3. The zero Value is Null.
// An "input value" is the same shape; conversion between input and response
// position is total, so no separate type exists — see AsInput.
type Value struct {
	kind       Kind
	scalarKind ScalarKind
	payload    any
	list       []Value
	obj        *Object
}

// InputValue is an alias: every Value is usable in argument/input position.
type InputValue = Value

// Null returns the Null value.
func Null() Value { return Value{kind: KindNull} }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// ScalarKind returns the scalar sub-kind; only meaningful when Kind() == KindScalar.
func (v Value) ScalarKind() ScalarKind { return v.scalarKind }

// Int builds an Int scalar.
func Int(n int64) Value { return Value{kind: KindScalar, scalarKind: ScalarInt, payload: n} }

// Float builds a Float scalar.
func Float(f float64) Value { return Value{kind: KindScalar, scalarKind: ScalarFloat, payload: f} }

// String builds a String scalar.
func String(s string) Value { return Value{kind: KindScalar, scalarKind: ScalarString, payload: s} }

// Bool builds a Bool scalar.
func Bool(b bool) Value { return Value{kind: KindScalar, scalarKind: ScalarBool, payload: b} }

// Enum builds an Enum scalar carrying the symbolic name.
func Enum(name string) Value { return Value{kind: KindScalar, scalarKind: ScalarEnum, payload: name} }

// List builds a List value from its elements.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// ListOf builds a List value from a slice.
func ListOf(items []Value) Value { return Value{kind: KindList, list: items} }

// Items returns the elements of a List value (nil otherwise).
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Payload returns the raw scalar payload (nil for non-scalars).
func (v Value) Payload() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.payload
}

// AsObject returns the underlying Object and whether v is an Object.
func (v Value) AsObject() (*Object, bool) {
	if v.kind != KindObject || v.obj == nil {
		return nil, false
	}
	return v.obj, true
}

// FromObject wraps an Object as a Value.
func FromObject(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: o}
}

// AsInput is the identity conversion between response and input position.
func (v Value) AsInput() InputValue { return v }

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindScalar:
		return fmt.Sprintf("%v", v.payload)
	case KindList:
		return fmt.Sprintf("%v", v.list)
	case KindObject:
		return v.obj.String()
	default:
		return "<invalid value>"
	}
}

// Object is an order-preserving name -> Value mapping.
type Object struct {
	keys   []string
	fields map[string]Value
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

// Set assigns fields[name] = v, appending name to the key order on first
// assignment and preserving its original position on overwrite.
func (o *Object) Set(name string, v Value) {
	if _, exists := o.fields[name]; !exists {
		o.keys = append(o.keys, name)
	}
	o.fields[name] = v
}

// Get returns the value at name and whether it was present.
func (o *Object) Get(name string) (Value, bool) {
	if o == nil {
		return Null(), false
	}
	v, ok := o.fields[name]
	return v, ok
}

// GetOrNull returns the value at name, or Null if absent.
func (o *Object) GetOrNull(name string) Value {
	v, _ := o.Get(name)
	return v
}

// Keys returns field names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

// Len returns the number of fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) String() string {
	if o == nil {
		return "{}"
	}
	s := "{"
	for i, k := range o.keys {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %s", k, o.fields[k].String())
	}
	return s + "}"
}
