package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmdServeRequiresAtLeastOneSubgraph(t *testing.T) {
	err := cmdServe(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-subgraph is required")
}

func TestCmdServeRequiresMatchingSchemaForEverySubgraph(t *testing.T) {
	err := cmdServe([]string{"-subgraph", "accounts=http://localhost:9999"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-subgraph-schema")
}

func TestCmdHelpPrintsServeUsage(t *testing.T) {
	require.NoError(t, cmdHelp([]string{"serve"}))
}

func TestCmdHelpRejectsUnknownTopic(t *testing.T) {
	err := cmdHelp([]string{"bogus"})
	require.Error(t, err)
}

func TestNameValueFlagRejectsMissingEquals(t *testing.T) {
	var f nameValueFlag
	err := f.Set("accounts")
	require.Error(t, err)
}

func TestNameValueFlagParsesNameAndValue(t *testing.T) {
	var f nameValueFlag
	require.NoError(t, f.Set("accounts=http://localhost:4000"))
	assert.Equal(t, "http://localhost:4000", f.m["accounts"])
}

func writeTempSDL(t *testing.T, sdl string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.graphql")
	require.NoError(t, os.WriteFile(path, []byte(sdl), 0o644))
	return path
}

func TestCmdPrintSchemaRequiresAtLeastOneSubgraph(t *testing.T) {
	err := cmdPrintSchema(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-subgraph is required")
}

func TestBuildExecutorsRequiresMatchingSchemaForEverySubgraph(t *testing.T) {
	_, err := buildExecutors(map[string]string{"accounts": "http://localhost:9999"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-subgraph-schema")
}

func TestBuildHandlerServesQueryAgainstComposedSubgraph(t *testing.T) {
	sub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = b
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"f0":"world"}}`))
	}))
	defer sub.Close()

	sdlPath := writeTempSDL(t, `type Query { hello: String }`)

	h, shutdown, err := buildHandler(
		map[string]string{"accounts": sub.URL},
		map[string]string{"accounts": sdlPath},
		false, 5*time.Second, nil, "", "federator-test",
	)
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "world")
}
