package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSDL = `
schema { query: Query }

type Query {
  store(id: ID!): Store
}

type Store {
  id: ID!
  name: String!
  legacyName: String @deprecated(reason: "use name instead")
}

enum Currency {
  USD
  KRW
}

input StoreFilter {
  currency: Currency
}
`

func TestBuildFromSDL(t *testing.T) {
	sch, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	assert.Equal(t, "Query", sch.QueryType)

	store := sch.Types["Store"]
	require.NotNil(t, store)
	assert.Equal(t, TypeKindObject, store.Kind)
	require.Len(t, store.Fields, 3)
	assert.Equal(t, "id", store.Fields[0].Name)
	assert.True(t, store.Fields[0].Type.IsNonNull())

	legacy := store.Fields[1]
	assert.Equal(t, "legacyName", legacy.Name)
	assert.True(t, legacy.IsDeprecated)
	assert.Equal(t, "use name instead", legacy.DeprecationReason)

	currency := sch.Types["Currency"]
	require.NotNil(t, currency)
	require.Len(t, currency.EnumValues, 2)
	assert.Equal(t, "KRW", currency.EnumValues[0].Name)

	filter := sch.Types["StoreFilter"]
	require.NotNil(t, filter)
	assert.Equal(t, TypeKindInputObject, filter.Kind)

	assert.NotNil(t, sch.Directives["include"])
	assert.NotNil(t, sch.Directives["skip"])
}

func TestRenderRoundTrip(t *testing.T) {
	sch, err := BuildFromSDL(testSDL)
	require.NoError(t, err)

	rendered := Render(sch)
	reparsed, err := BuildFromSDL(rendered)
	require.NoError(t, err)

	assert.Equal(t, sch.Types["Store"].Fields[0].Name, reparsed.Types["Store"].Fields[0].Name)
	assert.Len(t, reparsed.Types["Currency"].EnumValues, 2)
}
