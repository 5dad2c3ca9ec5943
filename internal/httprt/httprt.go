// Package httprt is a concrete HTTP-backed subgraph.Executor (spec §6
// Wire format, kept outside the core per spec §1 scope): it POSTs a
// synthesized document as a standard GraphQL-over-HTTP request body and
// decodes the JSON response back into a value.Value.
package httprt

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/value"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Executor POSTs {query, variables} to a fixed subgraph URL.
type Executor struct {
	name         string
	url          string
	client       *http.Client
	schema       *schema.Schema
	exposeAtRoot bool
	headers      http.Header
}

type Option func(*Executor)

// WithClient overrides the default http.Client (DefaultClient).
func WithClient(c *http.Client) Option { return func(e *Executor) { e.client = c } }

// WithExposeAtRoot controls subgraph.Executor.ExposeAtRoot (default true).
func WithExposeAtRoot(expose bool) Option { return func(e *Executor) { e.exposeAtRoot = expose } }

// WithStaticHeaders attaches fixed headers (e.g. a service-to-service auth
// token) to every outgoing request, in addition to whatever the gateway
// forwards from the inbound HTTP request via the request context.
func WithStaticHeaders(h http.Header) Option { return func(e *Executor) { e.headers = h } }

// New builds an Executor for one subgraph reachable at url, with sch as its
// already-introspected schema.
func New(name, url string, sch *schema.Schema, opts ...Option) *Executor {
	e := &Executor{name: name, url: url, schema: sch, client: http.DefaultClient, exposeAtRoot: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Name() string          { return e.name }
func (e *Executor) Schema() *schema.Schema { return e.schema }
func (e *Executor) ExposeAtRoot() bool     { return e.exposeAtRoot }

type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type responseBody struct {
	Data   map[string]any `json:"data"`
	Errors []responseErr  `json:"errors,omitempty"`
}

type responseErr struct {
	Message string `json:"message"`
}

// Run executes document against the subgraph over HTTP and returns its
// "data" object. A non-empty "errors" array in the response is surfaced as
// a single combined error (spec §6: subgraph errors abort the fetch that
// produced them; the Resolver Engine records the failure against every
// requester sharing that fetch).
func (e *Executor) Run(ctx context.Context, document string, _ subgraph.OperationType, variables map[string]any) (value.Value, error) {
	body, err := json.Marshal(requestBody{Query: document, Variables: variables})
	if err != nil {
		return value.Null(), fmt.Errorf("httprt: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return value.Null(), fmt.Errorf("httprt: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range e.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range subgraph.ForwardedHeaders(ctx) {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return value.Null(), fmt.Errorf("httprt: %s: %w", e.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return value.Null(), fmt.Errorf("httprt: %s: unexpected status %d", e.name, resp.StatusCode)
	}

	var out responseBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return value.Null(), fmt.Errorf("httprt: %s: decode response: %w", e.name, err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, len(out.Errors))
		for i, re := range out.Errors {
			msgs[i] = re.Message
		}
		return value.Null(), fmt.Errorf("httprt: %s: %s", e.name, strings.Join(msgs, "; "))
	}

	return value.FromGo(out.Data), nil
}
