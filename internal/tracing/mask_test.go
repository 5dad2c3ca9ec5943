package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

// TestMaskQueryMatchesSpecScenario6 reproduces spec §8 Scenario 6: same
// field, same argument values, same overall shape (operation keyword,
// `{ name }` padding on the nested selection, no padding on the outermost
// brace) as the worked example `query { user(email:"", age:0){ name }}`.
// Argument order is lexicographic rather than matching the example's
// declaration order — selection.Field.Arguments is a Go map with no
// preserved insertion order, so sorting (the same determinism strategy
// internal/fetch/synthesize.go already uses for subgraph documents) is the
// only way to keep span attributes stable across runs.
func TestMaskQueryMatchesSpecScenario6(t *testing.T) {
	nameField := &selection.Field{Name: "name", OutputName: "name"}
	userField := &selection.Field{
		Name:       "user",
		OutputName: "user",
		Arguments: map[string]value.Value{
			"email": value.String("a@b.com"),
			"age":   value.Int(42),
		},
		Fields: []*selection.Field{nameField},
	}

	got := MaskQuery(subgraph.Query, []*selection.Field{userField})
	assert.Equal(t, `query { user(age:0, email:""){ name }}`, got)
}

func TestMaskQueryCollapsesObjectArguments(t *testing.T) {
	filter := value.NewObject()
	filter.Set("active", value.Bool(true))
	field := &selection.Field{
		Name:       "items",
		OutputName: "items",
		Arguments:  map[string]value.Value{"filter": value.FromObject(filter)},
	}

	got := MaskQuery(subgraph.Query, []*selection.Field{field})
	assert.Equal(t, `query { items(filter:{})}`, got)
}

func TestMaskQueryLeavesBoolEnumListNullUnchanged(t *testing.T) {
	field := &selection.Field{
		Name:       "search",
		OutputName: "search",
		Arguments: map[string]value.Value{
			"active": value.Bool(true),
			"status": value.Enum("PUBLISHED"),
			"tags":   value.ListOf([]value.Value{value.String("a")}),
			"cursor": value.Null(),
		},
	}

	got := MaskQuery(subgraph.Query, []*selection.Field{field})
	assert.Contains(t, got, "active:true")
	assert.Contains(t, got, "status:PUBLISHED")
	assert.Contains(t, got, "tags:[...]")
	assert.Contains(t, got, "cursor:null")
}

func TestMaskQueryIsIdempotent(t *testing.T) {
	field := &selection.Field{
		Name:       "user",
		OutputName: "user",
		Arguments:  map[string]value.Value{"email": value.String("a@b.com")},
	}
	once := MaskQuery(subgraph.Query, []*selection.Field{field})

	maskedField := &selection.Field{
		Name:       "user",
		OutputName: "user",
		Arguments:  map[string]value.Value{"email": value.String("")},
	}
	twice := MaskQuery(subgraph.Query, []*selection.Field{maskedField})

	assert.Equal(t, once, twice)
}

func TestMaskQueryUsesOperationKeyword(t *testing.T) {
	field := &selection.Field{Name: "createUser", OutputName: "createUser"}
	got := MaskQuery(subgraph.Mutation, []*selection.Field{field})
	assert.Equal(t, `mutation { createUser}`, got)
}
