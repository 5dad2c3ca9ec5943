package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	gateway "github.com/fedgraph/gateway"
	schema "github.com/fedgraph/gateway/internal/schema"
	subgraph "github.com/fedgraph/gateway/internal/subgraph"
	value "github.com/fedgraph/gateway/internal/value"
)

type fakeExecutor struct {
	name string
	sch  *schema.Schema
	run  func(ctx context.Context) (value.Value, error)
}

func (f *fakeExecutor) Name() string          { return f.name }
func (f *fakeExecutor) Schema() *schema.Schema { return f.sch }
func (f *fakeExecutor) ExposeAtRoot() bool     { return true }
func (f *fakeExecutor) Run(ctx context.Context, _ string, _ subgraph.OperationType, _ map[string]any) (value.Value, error) {
	return f.run(ctx)
}

func newTestHandler(t *testing.T, exec subgraph.Executor, opts ...Option) *Handler {
	t.Helper()
	gw, err := gateway.New([]subgraph.Executor{exec}, nil)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	h, err := New(gw, opts...)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return h
}

func helloSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(`type Query { hello: String }`)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return sch
}

func helloResponse(s string) value.Value {
	root := value.NewObject()
	root.Set("f0", value.String(s))
	return value.FromObject(root)
}

func TestForwardedHeaders(t *testing.T) {
	var captured http.Header
	exec := &fakeExecutor{name: "accounts", sch: helloSchema(t), run: func(ctx context.Context) (value.Value, error) {
		captured = subgraph.ForwardedHeaders(ctx)
		return helloResponse("world"), nil
	}}
	h := newTestHandler(t, exec, WithForwardHeaders("X-Test"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	req.Header.Set("X-Other", "nope")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if captured.Get("X-Test") != "abc" || captured.Get("X-Other") != "" {
		t.Fatalf("headers not forwarded correctly: %v", captured)
	}
}

func TestForwardedHeadersDefaultEmpty(t *testing.T) {
	var captured http.Header
	exec := &fakeExecutor{name: "accounts", sch: helloSchema(t), run: func(ctx context.Context) (value.Value, error) {
		captured = subgraph.ForwardedHeaders(ctx)
		return helloResponse("world"), nil
	}}
	h := newTestHandler(t, exec)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if captured != nil {
		t.Fatalf("headers should not be forwarded by default: %v", captured)
	}
}

func TestCORSAndPreflight(t *testing.T) {
	exec := &fakeExecutor{name: "accounts", sch: helloSchema(t), run: func(ctx context.Context) (value.Value, error) {
		return helloResponse("world"), nil
	}}
	h := newTestHandler(t, exec, WithCORS("*"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	if pw.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", pw.Code)
	}
	if pw.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight missing CORS header")
	}
	if pw.Header().Get("Access-Control-Allow-Headers") != "X-Test" {
		t.Fatalf("preflight missing allow headers")
	}
}

func TestMaxBodyBytes(t *testing.T) {
	exec := &fakeExecutor{name: "accounts", sch: helloSchema(t), run: func(ctx context.Context) (value.Value, error) {
		t.Fatal("subgraph should not be reached when the body is rejected")
		return value.Null(), nil
	}}
	h := newTestHandler(t, exec, WithMaxBodyBytes(10))

	body := bytes.NewBufferString(`{"query":"1234567890"}`)
	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", w.Code)
	}
}

func TestExecutesQueryAndWritesData(t *testing.T) {
	exec := &fakeExecutor{name: "accounts", sch: helloSchema(t), run: func(ctx context.Context) (value.Value, error) {
		return helloResponse("world"), nil
	}}
	h := newTestHandler(t, exec)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if diff := pretty.Compare(w.Body.String(), `{"data":{"hello":"world"}}`+"\n"); diff != "" {
		t.Fatalf("response mismatch (-got +want):\n%s", diff)
	}
}
