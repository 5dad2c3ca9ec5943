package introspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schema "github.com/fedgraph/gateway/internal/schema"
)

func buildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(`type Query { hello: String }`)
	require.NoError(t, err)
	return sch
}

func TestExtendAddsSchemaAndTypeRootFields(t *testing.T) {
	sch := buildSchema(t)
	extended, original := Extend(sch)

	assert.Same(t, sch, original)
	queryType := extended.GetQueryType()
	require.NotNil(t, queryType)

	var names []string
	for _, f := range queryType.Fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "__schema")
	assert.Contains(t, names, "__type")
	assert.Contains(t, names, "hello")
}

func TestResolveSchemaField(t *testing.T) {
	sch := buildSchema(t)
	v, ok := Resolve(sch, sch, "queryType", nil)
	require.True(t, ok)
	qt, ok := v.(*schema.Type)
	require.True(t, ok)
	assert.Equal(t, "Query", qt.Name)
}

func TestResolveFallsThroughForUnknownSource(t *testing.T) {
	sch := buildSchema(t)
	_, ok := Resolve(sch, "not-a-schema-node", "anything", nil)
	assert.False(t, ok)
}

func TestRootType(t *testing.T) {
	sch := buildSchema(t)
	typ := RootType(sch, "Query")
	require.NotNil(t, typ)
	assert.Equal(t, "Query", typ.Name)
	assert.Nil(t, RootType(sch, "DoesNotExist"))
}
