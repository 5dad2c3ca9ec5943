package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/selection"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

type fakeExecutor struct {
	name    string
	run     func(document string, opType subgraph.OperationType) (value.Value, error)
	queries []string
}

func (f *fakeExecutor) Name() string               { return f.name }
func (f *fakeExecutor) Schema() *schema.Schema      { return &schema.Schema{} }
func (f *fakeExecutor) ExposeAtRoot() bool          { return true }
func (f *fakeExecutor) Run(_ context.Context, document string, opType subgraph.OperationType, _ map[string]any) (value.Value, error) {
	f.queries = append(f.queries, document)
	return f.run(document, opType)
}

func TestDataSourceDedupesEqualRequests(t *testing.T) {
	calls := 0
	exec := &fakeExecutor{name: "accounts", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		calls++
		root := value.NewObject()
		root.Set("f0", value.String("alice"))
		return value.FromObject(root), nil
	}}
	ds := New(map[string]subgraph.Executor{"accounts": exec})

	req := Request{
		Subgraph:      "accounts",
		SourceField:   "userName",
		OperationType: subgraph.Query,
		Arguments:     map[string]value.Value{"id": value.String("1")},
	}
	h1 := ds.Enqueue(req)
	h2 := ds.Enqueue(req)

	require.NoError(t, ds.Dispatch(context.Background()))

	v1, err1 := h1.Result()
	v2, err2 := h2.Result()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, "alice", v1.Payload())
	assert.Equal(t, "alice", v2.Payload())
	assert.Equal(t, 1, calls, "equal requests must share one subgraph call")
}

func TestDataSourceGroupsBySubgraphAndOperationType(t *testing.T) {
	var queried []string
	makeExec := func(name string) *fakeExecutor {
		return &fakeExecutor{name: name, run: func(doc string, opType subgraph.OperationType) (value.Value, error) {
			queried = append(queried, name+":"+opType.String())
			root := value.NewObject()
			root.Set("f0", value.Int(1))
			return value.FromObject(root), nil
		}}
	}
	accounts := makeExec("accounts")
	inventory := makeExec("inventory")
	ds := New(map[string]subgraph.Executor{"accounts": accounts, "inventory": inventory})

	h1 := ds.Enqueue(Request{Subgraph: "accounts", SourceField: "a", OperationType: subgraph.Query})
	h2 := ds.Enqueue(Request{Subgraph: "inventory", SourceField: "b", OperationType: subgraph.Query})

	require.NoError(t, ds.Dispatch(context.Background()))
	_, err1 := h1.Result()
	_, err2 := h2.Result()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.ElementsMatch(t, []string{"accounts:query", "inventory:query"}, queried)
}

func TestDataSourceCoalescesBatchEligibleRequests(t *testing.T) {
	var doc string
	exec := &fakeExecutor{name: "catalog", run: func(d string, _ subgraph.OperationType) (value.Value, error) {
		doc = d
		root := value.NewObject()
		root.Set("f0", value.ListOf([]value.Value{value.String("book-1"), value.String("book-2")}))
		return value.FromObject(root), nil
	}}
	ds := New(map[string]subgraph.Executor{"catalog": exec})

	fields := []*selection.Field{{Name: "id"}, {Name: "title"}}
	base := Request{
		Subgraph:      "catalog",
		SourceField:   "booksByAuthor",
		OperationType: subgraph.Query,
		Fields:        fields,
		BatchEnabled:  true,
		BatchArgName:  "authorIds",
	}
	r1 := base
	r1.Arguments = map[string]value.Value{"authorIds": value.String("a1")}
	r2 := base
	r2.Arguments = map[string]value.Value{"authorIds": value.String("a2")}

	h1 := ds.Enqueue(r1)
	h2 := ds.Enqueue(r2)

	require.NoError(t, ds.Dispatch(context.Background()))

	v1, err1 := h1.Result()
	v2, err2 := h2.Result()
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, v1, v2, "coalesced members receive the same full batch result")
	assert.Len(t, v1.Items(), 2)
	assert.Contains(t, doc, "authorIds: [")
	assert.Equal(t, 1, len(exec.queries), "coalesced requests dispatch as one subgraph call")
}
