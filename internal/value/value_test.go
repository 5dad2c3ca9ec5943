package value_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/fedgraph/gateway/internal/value"
)

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := value.NewObject()
	o.Set("c", value.Int(3))
	o.Set("a", value.Int(1))
	o.Set("b", value.Int(2))

	assert.Equal(t, []string{"c", "a", "b"}, o.Keys())
}

func TestObjectOverwritePreservesPosition(t *testing.T) {
	o := value.NewObject()
	o.Set("a", value.Int(1))
	o.Set("b", value.Int(2))
	o.Set("a", value.Int(100))

	assert.Equal(t, []string{"a", "b"}, o.Keys())
	v, ok := o.Get("a")
	assert.True(t, ok)
	assert.Equal(t, int64(100), v.Payload())
}

func TestFromGoRoundTrip(t *testing.T) {
	in := map[string]any{
		"name": "widget",
		"tags": []any{"a", "b"},
		"meta": map[string]any{"count": int64(3)},
	}
	v := value.FromGo(in)
	out := value.ToGo(v)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAsInputIsIdentity(t *testing.T) {
	v := value.String("x")
	assert.Equal(t, v, v.AsInput())
}
