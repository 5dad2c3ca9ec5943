package fetch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// call is one top-level aliased selection in a synthesized document, built
// from one FetchRequest (or one coalesced group of them).
type call struct {
	alias       string
	sourceField string
	arguments   map[string]value.Value
	fields      []*selection.Field
}

// synthesizeDocument renders a group of calls sharing one operation type
// into a single GraphQL document text, aliasing each call f0, f1, ... in
// group order (spec §4.6: "each FetchRequest becomes one top-level
// selection in the batch document, aliased by its index").
//
// Document synthesis is hand-rolled rather than routed through gqlparser's
// formatter: the gateway controls every token it emits (deterministic
// aliases, argument literals), so a small dedicated printer keeps that
// output fully predictable. gqlparser itself is exercised elsewhere, in
// internal/language, for parsing subgraph SDL and incoming operations.
func synthesizeDocument(opType subgraph.OperationType, calls []call) string {
	var b strings.Builder
	b.WriteString(opType.String())
	b.WriteString(" {\n")
	for _, c := range calls {
		b.WriteString("  ")
		writeCall(&b, c)
	}
	b.WriteString("}\n")
	return b.String()
}

func writeCall(b *strings.Builder, c call) {
	fmt.Fprintf(b, "%s: %s", c.alias, c.sourceField)
	writeArgLiterals(b, c.arguments)
	if len(c.fields) > 0 {
		b.WriteString(" {\n")
		for _, f := range c.fields {
			writeSelection(b, f, 2)
		}
		b.WriteString("  }")
	}
	b.WriteString("\n")
}

func writeSelection(b *strings.Builder, f *selection.Field, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	if f.OutputName != "" && f.OutputName != f.Name {
		fmt.Fprintf(b, "%s: %s", f.OutputName, f.Name)
	} else {
		b.WriteString(f.Name)
	}
	writeArgLiterals(b, f.Arguments)
	if len(f.Fields) > 0 {
		b.WriteString(" {\n")
		for _, child := range f.Fields {
			writeSelection(b, child, depth+1)
		}
		b.WriteString(indent + "}")
	}
	b.WriteString("\n")
}

func writeArgLiterals(b *strings.Builder, args map[string]value.Value) {
	if len(args) == 0 {
		return
	}
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	// Deterministic order keeps synthesized documents stable across runs
	// with the same logical request, which matters for fixture-based tests.
	sort.Strings(names)
	b.WriteByte('(')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s: %s", name, graphqlLiteral(args[name]))
	}
	b.WriteByte(')')
}

// graphqlLiteral renders v as a GraphQL input literal.
func graphqlLiteral(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindScalar:
		switch v.ScalarKind() {
		case value.ScalarString:
			return strconv.Quote(fmt.Sprintf("%v", v.Payload()))
		case value.ScalarEnum:
			return fmt.Sprintf("%v", v.Payload())
		default:
			return fmt.Sprintf("%v", v.Payload())
		}
	case value.KindList:
		parts := make([]string, 0, len(v.Items()))
		for _, it := range v.Items() {
			parts = append(parts, graphqlLiteral(it))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.KindObject:
		obj, _ := v.AsObject()
		parts := make([]string, 0, obj.Len())
		for _, k := range obj.Keys() {
			fv, _ := obj.Get(k)
			parts = append(parts, k+": "+graphqlLiteral(fv))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "null"
	}
}
