// Package subgraph defines the handle the gateway holds for one backend
// GraphQL service (spec §3 SubGraphExecutor, §6 subgraph transport).
//
// The core never constructs transport; it only calls Executor.Run with a
// fully synthesized document. See internal/httprt for a concrete
// HTTP-backed implementation, kept outside the core per spec §1 scope.
package subgraph

import (
	"context"
	"net/http"

	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/value"
)

// OperationType mirrors the three GraphQL operation kinds the engine cares
// about for batching/ordering decisions (spec §4.6/§4.7).
type OperationType int

const (
	Query OperationType = iota
	Mutation
	Subscription
)

func (t OperationType) String() string {
	switch t {
	case Query:
		return "query"
	case Mutation:
		return "mutation"
	case Subscription:
		return "subscription"
	default:
		return "query"
	}
}

// Executor is a named handle that executes a GraphQL request string against
// one subgraph and returns a response value tree.
type Executor interface {
	// Name is unique within a supergraph.
	Name() string
	// Schema is this subgraph's introspected query/mutation/subscription
	// root representation.
	Schema() *schema.Schema
	// ExposeAtRoot reports whether this subgraph contributes root fields
	// directly, as opposed to contributing only through Extend bindings.
	ExposeAtRoot() bool
	// Run executes a synthesized document against the subgraph and returns
	// the top-level "data" object as a Value.
	Run(ctx context.Context, document string, operationType OperationType, variables map[string]any) (value.Value, error)
}

type forwardedHeadersKey struct{}

// WithForwardedHeaders attaches the subset of an inbound request's headers
// that the gateway operator has opted to forward (spec §6: subgraph
// requests carry the caller's authorization/tracing headers through
// unchanged). An Executor reads them back with ForwardedHeaders and copies
// them onto its own outgoing subgraph call.
func WithForwardedHeaders(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, forwardedHeadersKey{}, h)
}

// ForwardedHeaders returns the headers attached by WithForwardedHeaders, or
// nil if none were set.
func ForwardedHeaders(ctx context.Context) http.Header {
	h, _ := ctx.Value(forwardedHeadersKey{}).(http.Header)
	return h
}
