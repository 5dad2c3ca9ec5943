package tracing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// MaskQuery renders the operation's selection tree with every argument
// value masked (spec §4.8): object arguments collapse to empty,
// string/int/float scalars collapse to their zero value, and bool, enum
// and null are kept as-is. A list argument is rendered as `[...]`, without
// its elements. The transform is idempotent: masking an already-masked
// tree produces the same text again.
//
// Output follows the shape of spec §8 Scenario 6's example: the operation
// keyword prefixes the text and every nested selection set is padded on
// both sides (`{ name }`), but the outermost brace carries no trailing
// pad. Arguments are listed sorted by name, so that example's field
// renders as `query { user(age:0, email:""){ name }}`.
func MaskQuery(opType subgraph.OperationType, fields []*selection.Field) string {
	var b strings.Builder
	b.WriteString(opType.String())
	b.WriteString(" {")
	writeMaskedFieldList(&b, fields)
	b.WriteByte('}')
	return b.String()
}

func writeMaskedFieldList(b *strings.Builder, fields []*selection.Field) {
	for _, f := range fields {
		b.WriteByte(' ')
		writeMaskedField(b, f)
	}
}

func writeMaskedField(b *strings.Builder, f *selection.Field) {
	b.WriteString(f.OutputNameOrName())
	if len(f.Arguments) > 0 {
		writeMaskedArgs(b, f.Arguments)
	}
	if len(f.Fields) > 0 {
		b.WriteByte('{')
		writeMaskedFieldList(b, f.Fields)
		b.WriteByte(' ')
		b.WriteByte('}')
	}
}

func writeMaskedArgs(b *strings.Builder, args map[string]value.Value) {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)
	b.WriteByte('(')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s:%s", name, maskLiteral(mask(args[name])))
	}
	b.WriteByte(')')
}

// mask applies spec §4.8's per-value rule. It does not recurse into a
// value's own children: an Object argument collapses to empty outright, so
// there is nothing left to recurse into, and a List's elements are left
// alone since the rule only names Object/String/Int/Float.
func mask(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindObject:
		return value.FromObject(value.NewObject())
	case value.KindScalar:
		switch v.ScalarKind() {
		case value.ScalarString:
			return value.String("")
		case value.ScalarInt:
			return value.Int(0)
		case value.ScalarFloat:
			return value.Float(0)
		}
	}
	return v
}

func maskLiteral(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindScalar:
		return fmt.Sprintf("%v", v.Payload())
	case value.KindList:
		return "[...]"
	case value.KindObject:
		return "{}"
	default:
		return "null"
	}
}
