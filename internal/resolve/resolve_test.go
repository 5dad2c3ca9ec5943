package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedgraph/gateway/internal/fetch"
	"github.com/fedgraph/gateway/internal/plan"
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

func (f *fakeExecutor) Name() string          { return f.name }
func (f *fakeExecutor) Schema() *schema.Schema { return &schema.Schema{} }
func (f *fakeExecutor) ExposeAtRoot() bool     { return true }
func (f *fakeExecutor) Run(_ context.Context, document string, opType subgraph.OperationType, _ map[string]any) (value.Value, error) {
	f.queries = append(f.queries, document)
	return f.run(document, opType)
}

func extractorField(name string) *selection.Field {
	return &selection.Field{
		Name:         name,
		ResolverKind: selection.ResolverExtractor,
		Extractor:    func(parent *value.Object) value.Value { return parent.GetOrNull(name) },
	}
}

func TestExecuteResolvesRootFetcherAndExtractorChildren(t *testing.T) {
	accounts := &fakeExecutor{name: "accounts", run: func(doc string, opType subgraph.OperationType) (value.Value, error) {
		assert.Equal(t, subgraph.Query, opType)
		inner := value.NewObject()
		inner.Set("id", value.String("1"))
		inner.Set("name", value.String("Ada"))
		root := value.NewObject()
		root.Set("f0", value.FromObject(inner))
		return value.FromObject(root), nil
	}}
	ds := fetch.New(map[string]subgraph.Executor{"accounts": accounts})

	userField := &selection.Field{
		Name:         "user",
		OutputName:   "user",
		Arguments:    map[string]value.Value{"id": value.String("1")},
		ResolverKind: selection.ResolverFetcher,
		Fetcher:      &selection.Extend{SourceGraph: "accounts", SourceFieldName: "user"},
		Fields:       []*selection.Field{extractorField("id"), extractorField("name")},
	}

	op := &plan.Operation{Type: subgraph.Query, Fields: []*selection.Field{userField}}
	result := Execute(context.Background(), ds, op)

	require.Empty(t, result.Errors)
	user, ok := result.Data.GetOrNull("user").AsObject()
	require.True(t, ok)
	assert.Equal(t, "1", user.GetOrNull("id").Payload())
	assert.Equal(t, "Ada", user.GetOrNull("name").Payload())
}

func TestExecuteResolvesNestedFetcherUsingParentArgument(t *testing.T) {
	stores := &fakeExecutor{name: "stores", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		inner := value.NewObject()
		inner.Set("id", value.String("s1"))
		root := value.NewObject()
		root.Set("f0", value.FromObject(inner))
		return value.FromObject(root), nil
	}}
	var receivedDoc string
	accounts := &fakeExecutor{name: "accounts", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		receivedDoc = doc
		inner := value.NewObject()
		inner.Set("name", value.String("Bob"))
		root := value.NewObject()
		root.Set("f0", value.FromObject(inner))
		return value.FromObject(root), nil
	}}
	ds := fetch.New(map[string]subgraph.Executor{"stores": stores, "accounts": accounts})

	ownerField := &selection.Field{
		Name:         "owner",
		ResolverKind: selection.ResolverFetcher,
		Fetcher: &selection.Extend{
			SourceGraph:     "accounts",
			SourceFieldName: "ownerOf",
			ArgumentMappings: []selection.ArgMapping{
				{ParentKey: "id", Fn: func(v value.Value) (string, value.Value, bool) { return "storeId", v, !v.IsNull() }},
			},
		},
		Fields: []*selection.Field{extractorField("name")},
	}
	storeField := &selection.Field{
		Name:         "store",
		ResolverKind: selection.ResolverFetcher,
		Fetcher:      &selection.Extend{SourceGraph: "stores", SourceFieldName: "store"},
		Fields:       []*selection.Field{extractorField("id"), ownerField},
	}

	op := &plan.Operation{Type: subgraph.Query, Fields: []*selection.Field{storeField}}
	result := Execute(context.Background(), ds, op)

	require.Empty(t, result.Errors)
	store, _ := result.Data.GetOrNull("store").AsObject()
	owner, ok := store.GetOrNull("owner").AsObject()
	require.True(t, ok)
	assert.Equal(t, "Bob", owner.GetOrNull("name").Payload())
	assert.Contains(t, receivedDoc, `storeId: "s1"`)
}

func TestExecuteCoalescesAndFiltersBatchEntityFetch(t *testing.T) {
	stores := &fakeExecutor{name: "stores", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		s1 := value.NewObject()
		s1.Set("id", value.String("s1"))
		s1.Set("authorId", value.String("a1"))
		s2 := value.NewObject()
		s2.Set("id", value.String("s2"))
		s2.Set("authorId", value.String("a2"))
		root := value.NewObject()
		root.Set("f0", value.ListOf([]value.Value{value.FromObject(s1), value.FromObject(s2)}))
		return value.FromObject(root), nil
	}}
	catalog := &fakeExecutor{name: "catalog", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		a1 := value.NewObject()
		a1.Set("id", value.String("a1"))
		a1.Set("name", value.String("Author1"))
		a2 := value.NewObject()
		a2.Set("id", value.String("a2"))
		a2.Set("name", value.String("Author2"))
		root := value.NewObject()
		root.Set("f0", value.ListOf([]value.Value{value.FromObject(a1), value.FromObject(a2)}))
		return value.FromObject(root), nil
	}}
	ds := fetch.New(map[string]subgraph.Executor{"stores": stores, "catalog": catalog})

	filter := func(parent *value.Object, candidate *value.Object) bool {
		pid, _ := parent.Get("authorId")
		cid, _ := candidate.Get("id")
		return pid.Payload() == cid.Payload()
	}
	authorField := &selection.Field{
		Name:         "author",
		ResolverKind: selection.ResolverFetcher,
		Eliminate:    true,
		Fetcher: &selection.Extend{
			SourceGraph:     "catalog",
			SourceFieldName: "authorsByIds",
			ArgumentMappings: []selection.ArgMapping{
				{ParentKey: "authorId", Fn: func(v value.Value) (string, value.Value, bool) { return "authorIds", v, !v.IsNull() }},
			},
			FilterBatchResults: filter,
			BatchArgName:       "authorIds",
			AdditionalFields:   []*selection.Field{{Name: "authorId"}},
		},
		Fields: []*selection.Field{extractorField("name")},
	}
	storesField := &selection.Field{
		Name:         "stores",
		ResolverKind: selection.ResolverFetcher,
		Fetcher:      &selection.Extend{SourceGraph: "stores", SourceFieldName: "stores"},
		Fields:       []*selection.Field{extractorField("id"), authorField},
	}

	op := &plan.Operation{Type: subgraph.Query, Fields: []*selection.Field{storesField}}
	result := Execute(context.Background(), ds, op)

	require.Empty(t, result.Errors)
	assert.Equal(t, 1, len(catalog.queries), "both entity fetches must coalesce into one subgraph call")

	list := result.Data.GetOrNull("stores").Items()
	require.Len(t, list, 2)
	first, _ := list[0].AsObject()
	author, ok := first.GetOrNull("author").AsObject()
	require.True(t, ok, "Eliminate flattens the filtered batch result to a single object")
	assert.Equal(t, "Author1", author.GetOrNull("name").Payload())
}

func TestExecuteAbortsWholeResponseOnSubgraphFailure(t *testing.T) {
	accounts := &fakeExecutor{name: "accounts", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		return value.Null(), assert.AnError
	}}
	ds := fetch.New(map[string]subgraph.Executor{"accounts": accounts})

	userField := &selection.Field{
		Name:         "user",
		ResolverKind: selection.ResolverFetcher,
		Fetcher:      &selection.Extend{SourceGraph: "accounts", SourceFieldName: "user"},
	}
	op := &plan.Operation{Type: subgraph.Query, Fields: []*selection.Field{userField}}
	result := Execute(context.Background(), ds, op)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, []any{"user"}, result.Errors[0].Path)
	assert.Nil(t, result.Data, "a failure at any node must abort the whole response, not just the failing field")
}

func TestExecuteAbortsOnFirstOfSeveralFailingRootFields(t *testing.T) {
	accounts := &fakeExecutor{name: "accounts", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		return value.Null(), assert.AnError
	}}
	catalog := &fakeExecutor{name: "catalog", run: func(doc string, _ subgraph.OperationType) (value.Value, error) {
		return value.Null(), assert.AnError
	}}
	ds := fetch.New(map[string]subgraph.Executor{"accounts": accounts, "catalog": catalog})

	userField := &selection.Field{
		Name:         "user",
		ResolverKind: selection.ResolverFetcher,
		Fetcher:      &selection.Extend{SourceGraph: "accounts", SourceFieldName: "user"},
	}
	productField := &selection.Field{
		Name:         "product",
		ResolverKind: selection.ResolverFetcher,
		Fetcher:      &selection.Extend{SourceGraph: "catalog", SourceFieldName: "product"},
	}
	op := &plan.Operation{Type: subgraph.Query, Fields: []*selection.Field{userField, productField}}
	result := Execute(context.Background(), ds, op)

	require.Len(t, result.Errors, 1, "the spec mandates a single-element error list even with multiple independently-failing fields")
	assert.Nil(t, result.Data)
}

func TestExecuteRunsMutationRootFieldsSequentially(t *testing.T) {
	var order []string
	accounts := &fakeExecutor{name: "accounts", run: func(doc string, opType subgraph.OperationType) (value.Value, error) {
		assert.Equal(t, subgraph.Mutation, opType)
		order = append(order, doc)
		root := value.NewObject()
		root.Set("f0", value.Bool(true))
		return value.FromObject(root), nil
	}}
	ds := fetch.New(map[string]subgraph.Executor{"accounts": accounts})

	first := &selection.Field{Name: "createUser", ResolverKind: selection.ResolverFetcher,
		Fetcher: &selection.Extend{SourceGraph: "accounts", SourceFieldName: "createUser"}}
	second := &selection.Field{Name: "deleteUser", ResolverKind: selection.ResolverFetcher,
		Fetcher: &selection.Extend{SourceGraph: "accounts", SourceFieldName: "deleteUser"}}

	op := &plan.Operation{Type: subgraph.Mutation, Fields: []*selection.Field{first, second}}
	result := Execute(context.Background(), ds, op)

	require.Empty(t, result.Errors)
	assert.Equal(t, 2, len(accounts.queries), "each mutation root field dispatches on its own")
}
