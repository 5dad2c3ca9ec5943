package compose

import (
	"github.com/fedgraph/gateway/internal/gqlerr"
	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/selection"
)

// ExtendField returns a Transformer that rebinds typeName.fieldName to the
// given Extend, replacing whatever binding the merge step assigned it
// (spec §8 Scenario 2: "stores.bookSells" extended from the stores
// subgraph itself, Scenario 3: entity-style batch lookup on another
// subgraph).
func ExtendField(typeName, fieldName string, extend *selection.Extend) Transformer {
	return TransformerFunc(func(sch *schema.Schema) error {
		f := findField(sch, typeName, fieldName)
		if f == nil {
			return gqlerr.NewConfigurationError("compose: cannot extend unknown field %s.%s", typeName, fieldName)
		}
		f.Extend = extend
		return nil
	})
}

// DropField removes a field entirely from the supergraph, used when a
// subgraph's raw schema exposes something the supergraph should not.
func DropField(typeName, fieldName string) Transformer {
	return TransformerFunc(func(sch *schema.Schema) error {
		t, ok := sch.Types[typeName]
		if !ok {
			return gqlerr.NewConfigurationError("compose: cannot drop field on unknown type %s", typeName)
		}
		kept := t.Fields[:0]
		for _, f := range t.Fields {
			if f.Name != fieldName {
				kept = append(kept, f)
			}
		}
		t.Fields = kept
		return nil
	})
}

func findField(sch *schema.Schema, typeName, fieldName string) *schema.Field {
	t, ok := sch.Types[typeName]
	if !ok {
		return nil
	}
	for _, f := range t.Fields {
		if f.Name == fieldName {
			return f
		}
	}
	return nil
}
