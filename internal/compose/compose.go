// Package compose implements the Schema Composer (spec §4.5): it merges
// each subgraph's own schema into one supergraph schema, wiring every field
// declared on a root type to the subgraph that declared it, then lets a list
// of Transformers rebind individual fields to cross-graph Extend bindings.
package compose

import (
	"sort"

	"github.com/fedgraph/gateway/internal/gqlerr"
	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// Transformer rebinds or augments fields on an already-merged schema, most
// commonly to declare an Extend binding that routes a field to a different
// subgraph than the one that declared it (spec §8 Scenario 2/3).
type Transformer interface {
	Apply(sch *schema.Schema) error
}

// TransformerFunc adapts a plain function to Transformer.
type TransformerFunc func(sch *schema.Schema) error

func (f TransformerFunc) Apply(sch *schema.Schema) error { return f(sch) }

// Build merges the given subgraphs into one supergraph schema and applies
// transformers in order (spec §4.5 steps 1-5).
//
// Step 1: every (QueryType, MutationType, SubscriptionType) declared by a
// subgraph with ExposeAtRoot() is collected into the root type set.
// Step 2: subgraphs are walked in name order (determinism); each type seen
// for the first time is copied in; a type seen again has its fields
// unioned in, and a field name collision on the same type is a
// ConfigurationError — the merge never silently picks a winner.
// Step 3: every field declared on a root type gets an identity Extend
// (it resolves from the subgraph that declared it, with no argument
// remapping) so the resolve engine always has a Fetcher binding for root
// fields, even before any Transformer runs.
// Step 4: transformers run in list order, rebinding Extend where the
// supergraph calls for cross-graph extension.
func Build(subgraphs []subgraph.Executor, transformers []Transformer) (*schema.Schema, error) {
	if len(subgraphs) == 0 {
		return nil, gqlerr.NewConfigurationError("compose: at least one subgraph is required")
	}

	ordered := append([]subgraph.Executor(nil), subgraphs...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name() < ordered[j].Name() })

	rootTypeNames := map[string]bool{}
	merged := &schema.Schema{
		Types:      map[string]*schema.Type{},
		Directives: map[string]*schema.Directive{},
	}

	for _, g := range ordered {
		if !g.ExposeAtRoot() {
			continue
		}
		sub := g.Schema()
		if err := adoptRootTypeName(merged, &merged.QueryType, sub.QueryType, rootTypeNames); err != nil {
			return nil, err
		}
		if err := adoptRootTypeName(merged, &merged.MutationType, sub.MutationType, rootTypeNames); err != nil {
			return nil, err
		}
		if err := adoptRootTypeName(merged, &merged.SubscriptionType, sub.SubscriptionType, rootTypeNames); err != nil {
			return nil, err
		}
	}

	for _, g := range ordered {
		sub := g.Schema()
		for name, dir := range sub.Directives {
			if _, exists := merged.Directives[name]; !exists {
				merged.Directives[name] = dir
			}
		}
		for name, typ := range sub.Types {
			if err := mergeType(merged, g.Name(), name, typ, rootTypeNames); err != nil {
				return nil, err
			}
		}
	}

	for _, t := range transformers {
		if err := t.Apply(merged); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

func adoptRootTypeName(merged *schema.Schema, slot *string, candidate string, rootTypeNames map[string]bool) error {
	if candidate == "" {
		return nil
	}
	if *slot == "" {
		*slot = candidate
	} else if *slot != candidate {
		return gqlerr.NewConfigurationError("compose: conflicting root type names %q and %q", *slot, candidate)
	}
	rootTypeNames[candidate] = true
	return nil
}

func mergeType(merged *schema.Schema, subgraphName, name string, typ *schema.Type, rootTypeNames map[string]bool) error {
	existing, ok := merged.Types[name]
	if !ok {
		cp := copyType(typ)
		if rootTypeNames[name] {
			for _, f := range cp.Fields {
				f.Extend = identityExtend(subgraphName, f)
			}
		}
		merged.Types[name] = cp
		return nil
	}

	existingFields := make(map[string]bool, len(existing.Fields))
	for _, f := range existing.Fields {
		existingFields[f.Name] = true
	}

	for _, f := range typ.Fields {
		if existingFields[f.Name] {
			return gqlerr.NewConfigurationError("compose: field %s.%s is declared by more than one subgraph", name, f.Name)
		}
		fc := copyField(f)
		if rootTypeNames[name] {
			fc.Extend = identityExtend(subgraphName, fc)
		}
		existing.Fields = append(existing.Fields, fc)
		existingFields[f.Name] = true
	}

	if len(typ.PossibleTypes) > 0 {
		seen := make(map[string]bool, len(existing.PossibleTypes))
		for _, pt := range existing.PossibleTypes {
			seen[pt] = true
		}
		for _, pt := range typ.PossibleTypes {
			if !seen[pt] {
				existing.PossibleTypes = append(existing.PossibleTypes, pt)
				seen[pt] = true
			}
		}
	}
	return nil
}

// identityExtend builds the default Extend for a root field: resolve it
// from the subgraph that declared it, passing every declared argument
// straight through by name (spec §4.5 step 3).
func identityExtend(subgraphName string, f *schema.Field) *selection.Extend {
	mappings := make([]selection.ArgMapping, 0, len(f.Arguments))
	for _, arg := range f.Arguments {
		name := arg.Name
		mappings = append(mappings, selection.ArgMapping{
			ParentKey: name,
			Fn: func(v value.Value) (string, value.Value, bool) {
				return name, v, !v.IsNull()
			},
		})
	}
	return &selection.Extend{
		SourceGraph:      subgraphName,
		SourceFieldName:  f.Name,
		ArgumentMappings: mappings,
	}
}

func copyType(t *schema.Type) *schema.Type {
	cp := *t
	cp.Fields = make([]*schema.Field, len(t.Fields))
	for i, f := range t.Fields {
		cp.Fields[i] = copyField(f)
	}
	cp.Interfaces = append([]string(nil), t.Interfaces...)
	cp.PossibleTypes = append([]string(nil), t.PossibleTypes...)
	cp.EnumValues = append([]*schema.EnumValue(nil), t.EnumValues...)
	cp.InputFields = append([]*schema.InputValue(nil), t.InputFields...)
	return &cp
}

func copyField(f *schema.Field) *schema.Field {
	cp := *f
	cp.Arguments = append([]*schema.InputValue(nil), f.Arguments...)
	return &cp
}
