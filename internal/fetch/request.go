// Package fetch implements the per-request Fetch Data Source (spec §4.6):
// deduplicating and batching FetchRequests within one execution, grouping
// by (subgraphName, operationType) and dispatching one synthesized document
// per group through the matching subgraph.Executor.
package fetch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// Request is the data-source key described in spec §3: structural equality
// holds over every field, and argument-map ordering never affects equality.
type Request struct {
	Subgraph      string
	SourceField   string
	OperationType subgraph.OperationType
	Fields        []*selection.Field
	Arguments     map[string]value.Value
	BatchEnabled  bool
	// BatchArgName names the single argument the data source may replace
	// with a list when coalescing this request with structurally identical
	// siblings (spec §4.6 Entity batching). Empty disables coalescing even
	// when BatchEnabled is set.
	BatchArgName string
}

// Key returns a structural equality key: two Requests with equal Key are
// the same fetch and share one promise.
func (r Request) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x1f%s\x1f%d\x1f%t\x1f%s\x1f", r.Subgraph, r.SourceField, r.OperationType, r.BatchEnabled, r.BatchArgName)
	writeFields(&b, r.Fields)
	b.WriteByte('\x1f')
	writeArgs(&b, r.Arguments)
	return b.String()
}

func writeFields(b *strings.Builder, fields []*selection.Field) {
	b.WriteByte('[')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		writeField(b, f)
	}
	b.WriteByte(']')
}

func writeField(b *strings.Builder, f *selection.Field) {
	fmt.Fprintf(b, "%s:%s:%t:", f.Name, f.OutputNameOrName(), f.Eliminate)
	targets := append([]string(nil), f.Targets...)
	sort.Strings(targets)
	b.WriteString(strings.Join(targets, ","))
	b.WriteByte(':')
	writeArgs(b, f.Arguments)
	b.WriteByte('{')
	writeFields(b, f.Fields)
	b.WriteByte('}')
}

func writeArgs(b *strings.Builder, args map[string]value.Value) {
	names := make([]string, 0, len(args))
	for k := range args {
		names = append(names, k)
	}
	sort.Strings(names)
	for i, k := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%s=%s", k, canonicalValue(args[k]))
	}
}

func canonicalValue(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindScalar:
		return fmt.Sprintf("%v", v.Payload())
	case value.KindList:
		parts := make([]string, 0, len(v.Items()))
		for _, it := range v.Items() {
			parts = append(parts, canonicalValue(it))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case value.KindObject:
		obj, _ := v.AsObject()
		keys := append([]string(nil), obj.Keys()...)
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			fv, _ := obj.Get(k)
			parts = append(parts, k+"="+canonicalValue(fv))
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return ""
	}
}
