// Package selection defines the selection-tree node (Field) and the
// declarative Extend binding used to route a field to a subgraph, per
// spec §3 and §4.6/§4.7.
//
// A Field is resolved by exactly one of two strategies, chosen when the
// operation is planned (internal/plan) from the composed schema: Extractor (pure, in-process projection from an
// already-fetched parent) or Fetcher (a reference to an Extend binding that
// must be dispatched through the fetch data source). Dispatch on the hot
// path is a tag switch over ResolverKind, not a virtual call, per spec §9.
package selection

import "github.com/fedgraph/gateway/internal/value"

// ResolverKind tags how a Field is resolved.
type ResolverKind int

const (
	// ResolverNone marks a Field with no resolver bound yet (root input,
	// prior to composition).
	ResolverNone ResolverKind = iota
	ResolverExtractor
	ResolverFetcher
)

// ExtractorFunc pulls a child value out of an already-resolved parent
// object. It performs no I/O; an extractor never suspends the resolver.
type ExtractorFunc func(parent *value.Object) value.Value

// Field is one node of a selection tree (spec §3).
type Field struct {
	// Name is the field name to request on the owning subgraph (or, for an
	// Extractor field, the name looked up on the parent Object).
	Name string
	// OutputName is the alias used in the response. Defaults to Name.
	OutputName string
	// Arguments maps argument name to value. The map carries no order:
	// FetchRequest equality (spec §3) and synthesized documents both use
	// the argument names sorted lexicographically.
	Arguments map[string]value.Value
	// Fields holds ordered child selections.
	Fields []*Field
	// Targets optionally narrows this selection to a set of concrete type
	// names (interface/union narrowing).
	Targets []string
	// Eliminate is set on a Fetcher field itself (by internal/plan, for a
	// singular-typed field whose Extend has FilterBatchResults). When true,
	// the filtered batch result is collapsed to its first match, or Null
	// when nothing matches, instead of being returned as a list; further
	// matches are dropped (entity-fetch flattening, spec §4.7).
	Eliminate bool

	ResolverKind ResolverKind
	Extractor    ExtractorFunc
	Fetcher      *Extend
}

// OutputNameOrName returns OutputName, defaulting to Name.
func (f *Field) OutputNameOrName() string {
	if f.OutputName != "" {
		return f.OutputName
	}
	return f.Name
}

// ArgMapping maps one parent field value to a subgraph call argument.
// ParentKey names the field read off the parent object; Fn computes the
// argument name/value pair from that field's value (spec §3's
// "parentKey → (inputValue → (argName, argValue))"). Fn returns ok=false to
// drop the argument (used when the produced value is Null, spec §4.7).
type ArgMapping struct {
	ParentKey string
	Fn        func(parentFieldValue value.Value) (argName string, argValue value.Value, ok bool)
}

// FilterFunc re-associates one batched candidate result with its parent,
// used for entity-style resolution (spec §3, §4.7).
type FilterFunc func(parent *value.Object, candidate *value.Object) bool

// Extend is the declarative binding described in spec §3: "field F on type
// T is resolved by subgraph G via its field F', mapping parent values to
// arguments, optionally with batch filtering".
type Extend struct {
	SourceGraph     string
	SourceFieldName string
	// Target optionally names the concrete type this binding resolves to
	// (entity-style resolution).
	Target string
	// ArgumentMappings is ordered; evaluation order affects nothing
	// observable but is kept stable for deterministic synthesis.
	ArgumentMappings []ArgMapping
	// AdditionalFields are extra fields to include in the sub-selection,
	// typically the keys FilterBatchResults needs to compare against.
	AdditionalFields []*Field
	// FilterBatchResults, when set, narrows a batched list result back down
	// to the entries belonging to one parent; together with a non-empty
	// BatchArgName it also enables batch-coalescing (BatchEnabled, spec §3).
	FilterBatchResults FilterFunc
	// BatchArgName names the argument the fetch data source substitutes
	// with a list when it coalesces several structurally identical
	// FetchRequests into one call (spec §4.6 Entity batching). Only
	// consulted when FilterBatchResults is set; empty disables coalescing.
	BatchArgName string
}

// Lower produces a plain Field (ResolverKind cleared) suitable for inclusion
// in a synthesized sub-query: it keeps structure (name, alias, arguments,
// children) but drops any resolver binding, per spec §4.7 step 2. If a
// child itself carries a Fetcher, only the keys its ArgumentMappings will
// need are kept (one bare Field per mapping key), not the child's own
// sub-selection — that recursion happens on the next gather phase instead.
func Lower(f *Field, targets []string) *Field {
	lowered := &Field{
		Name:       f.Name,
		OutputName: f.OutputName,
		Arguments:  f.Arguments,
		Eliminate:  f.Eliminate,
		Targets:    targets,
	}
	for _, child := range f.Fields {
		if child.ResolverKind == ResolverFetcher {
			seen := make(map[string]bool)
			for _, am := range child.Fetcher.ArgumentMappings {
				if seen[am.ParentKey] {
					continue
				}
				seen[am.ParentKey] = true
				lowered.Fields = append(lowered.Fields, &Field{Name: am.ParentKey})
			}
			continue
		}
		lowered.Fields = append(lowered.Fields, Lower(child, targets))
	}
	return lowered
}
