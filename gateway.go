// Package gateway ties schema composition (internal/compose), selection
// planning (internal/plan), and resolution (internal/resolve) together
// behind one Execute call — this is the gateway described end to end by
// spec §4: build once from a set of subgraphs, then run any number of
// operations against the resulting supergraph.
package gateway

import (
	"context"
	"time"

	"github.com/fedgraph/gateway/internal/compose"
	"github.com/fedgraph/gateway/internal/eventbus"
	"github.com/fedgraph/gateway/internal/events"
	"github.com/fedgraph/gateway/internal/fetch"
	"github.com/fedgraph/gateway/internal/gqlerr"
	"github.com/fedgraph/gateway/internal/introspection"
	"github.com/fedgraph/gateway/internal/language"
	"github.com/fedgraph/gateway/internal/plan"
	"github.com/fedgraph/gateway/internal/reqid"
	"github.com/fedgraph/gateway/internal/resolve"
	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/tracing"
	"github.com/fedgraph/gateway/internal/value"
)

// Gateway holds one composed supergraph and the subgraph executors it was
// built from. It is safe for concurrent use: Execute builds a fresh
// fetch.DataSource per call, so concurrent operations never share fetch
// dedup state.
type Gateway struct {
	schema    *schema.Schema
	extended  *schema.Schema
	original  *schema.Schema
	executors map[string]subgraph.Executor
}

// New composes subgraphs into one supergraph schema (applying transformers
// in order) and returns a Gateway ready to Execute operations against it.
func New(subgraphs []subgraph.Executor, transformers []compose.Transformer) (*Gateway, error) {
	merged, err := compose.Build(subgraphs, transformers)
	if err != nil {
		return nil, err
	}
	extended, original := introspection.Extend(merged)

	executors := make(map[string]subgraph.Executor, len(subgraphs))
	for _, s := range subgraphs {
		executors[s.Name()] = s
	}

	return &Gateway{schema: merged, extended: extended, original: original, executors: executors}, nil
}

// Schema returns the composed supergraph (the extended form, including the
// synthesized __schema/__type introspection fields).
func (g *Gateway) Schema() *schema.Schema { return g.extended }

// Request is one GraphQL operation to execute.
type Request struct {
	Query         string
	OperationName string
	Variables     map[string]any
}

// Response is the gateway's result. Per spec §4.7/§7, a resolver failure
// aborts the whole response: Data is nil and Errors holds exactly the one
// error that caused the abort. Data is non-nil only when Errors is empty —
// there is no partial/selection-local nullification.
type Response struct {
	Data   any
	Errors []error
}

// Execute parses, plans, and resolves req against the supergraph. A request
// ID is attached to ctx if one isn't already present, so HTTPStart/Finish
// and GraphQLStart/Finish events correlate under the same span tree even
// when Execute is called directly (outside internal/server).
func (g *Gateway) Execute(ctx context.Context, req Request) *Response {
	if _, ok := reqid.FromContext(ctx); !ok {
		ctx, _ = reqid.NewContext(ctx)
	}

	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return &Response{Errors: []error{gqlerr.NewValidationError(err)}}
	}

	op, err := plan.Build(doc, req.OperationName, req.Variables, g.extended, g.original)
	if err != nil {
		return &Response{Errors: []error{err}}
	}

	opType := op.Type.String()
	maskedQuery := tracing.MaskQuery(op.Type, op.Fields)

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{
		Query:         maskedQuery,
		OperationName: req.OperationName,
		OperationType: opType,
	})

	ds := fetch.New(g.executors)
	result := resolve.Execute(ctx, ds, op)

	errs := make([]error, len(result.Errors))
	for i, e := range result.Errors {
		errs[i] = e
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         maskedQuery,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})

	return &Response{Data: value.ToGo(value.FromObject(result.Data)), Errors: errs}
}
