// Command federator runs the HTTP GraphQL gateway described by spec §4: it
// composes a set of subgraphs (each an HTTP endpoint plus its SDL file)
// into one supergraph and serves it over /graphql.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	gateway "github.com/fedgraph/gateway"
	"github.com/fedgraph/gateway/internal/eventbus"
	"github.com/fedgraph/gateway/internal/httprt"
	"github.com/fedgraph/gateway/internal/schema"
	"github.com/fedgraph/gateway/internal/server"
	"github.com/fedgraph/gateway/internal/subgraph"
	"github.com/fedgraph/gateway/internal/tracing"
)

const rootUsage = `federator — GraphQL federation gateway

USAGE:
  federator <command> [flags]

COMMANDS:
  serve         Run the HTTP GraphQL gateway
  print-schema  Compose the supergraph and print its SDL to stdout
  help          Show help for any command
`

const serveUsage = `serve FLAGS:
  -subgraph NAME=URL          Register a subgraph's HTTP endpoint. Repeatable, required.
  -subgraph-schema NAME=FILE  SDL file describing that subgraph's schema. Repeatable,
                               required for every NAME passed to -subgraph.
  -server.addr <addr>         HTTP listen address (default: :8080)
  -server.pretty               Pretty-print JSON responses
  -server.timeout <duration>  Per-request timeout, e.g. 10s (default: 10s)
  -server.forward-header <n>  Forward HTTP header to subgraph requests. Repeatable.
  -otel.endpoint <addr>       OTLP collector endpoint
  -otel.service <name>        OpenTelemetry service name (default: federator)
`

const printSchemaUsage = `print-schema FLAGS:
  -subgraph NAME=URL          Register a subgraph's HTTP endpoint. Repeatable, required.
  -subgraph-schema NAME=FILE  SDL file describing that subgraph's schema. Repeatable,
                               required for every NAME passed to -subgraph.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("federator", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "print-schema":
		return cmdPrintSchema(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "print-schema":
		fmt.Print(printSchemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type nameValueFlag struct {
	m map[string]string
}

func (f *nameValueFlag) String() string { return "" }

func (f *nameValueFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid %q, expected NAME=VALUE", v)
	}
	name := strings.TrimSpace(parts[0])
	val := strings.TrimSpace(parts[1])
	if name == "" || val == "" {
		return fmt.Errorf("invalid %q, expected NAME=VALUE", v)
	}
	if f.m == nil {
		f.m = map[string]string{}
	}
	f.m[name] = val
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdServe(args []string) error {
	addr := ":8080"
	pretty := false
	timeout := 10 * time.Second
	otelEndpoint := ""
	otelService := "federator"
	var subgraphURLs, subgraphSchemas nameValueFlag
	var forwardHeaders stringListFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&subgraphURLs, "subgraph", "Register a subgraph's HTTP endpoint (NAME=URL)")
	fs.Var(&subgraphSchemas, "subgraph-schema", "SDL file describing that subgraph's schema (NAME=FILE)")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "server.pretty", pretty, "Pretty-print JSON responses")
	fs.DurationVar(&timeout, "server.timeout", timeout, "Per-request timeout")
	fs.Var(&forwardHeaders, "server.forward-header", "Forward HTTP header to subgraph requests")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if len(subgraphURLs.m) == 0 {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("at least one -subgraph is required")
	}

	h, shutdown, err := buildHandler(subgraphURLs.m, subgraphSchemas.m, pretty, timeout, forwardHeaders, otelEndpoint, otelService)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	log.Printf("GraphQL gateway listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func cmdPrintSchema(args []string) error {
	var subgraphURLs, subgraphSchemas nameValueFlag
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&subgraphURLs, "subgraph", "Register a subgraph's HTTP endpoint (NAME=URL)")
	fs.Var(&subgraphSchemas, "subgraph-schema", "SDL file describing that subgraph's schema (NAME=FILE)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printSchemaUsage)
		return err
	}
	if len(subgraphURLs.m) == 0 {
		fmt.Fprint(os.Stderr, printSchemaUsage)
		return fmt.Errorf("at least one -subgraph is required")
	}

	executors, err := buildExecutors(subgraphURLs.m, subgraphSchemas.m)
	if err != nil {
		return err
	}
	gw, err := gateway.New(executors, nil)
	if err != nil {
		return fmt.Errorf("compose gateway: %w", err)
	}
	fmt.Print(schema.Render(gw.Schema()))
	return nil
}

// buildExecutors reads each subgraph's paired SDL file and wraps it in an
// HTTP subgraph.Executor pointed at the given URL.
func buildExecutors(subgraphURLs, subgraphSchemas map[string]string) ([]subgraph.Executor, error) {
	executors := make([]subgraph.Executor, 0, len(subgraphURLs))
	for name, url := range subgraphURLs {
		sdlFile, ok := subgraphSchemas[name]
		if !ok {
			return nil, fmt.Errorf("no -subgraph-schema given for subgraph %q", name)
		}
		sdl, err := os.ReadFile(sdlFile)
		if err != nil {
			return nil, fmt.Errorf("read schema for %q: %w", name, err)
		}
		sch, err := schema.BuildFromSDL(string(sdl))
		if err != nil {
			return nil, fmt.Errorf("build schema for %q: %w", name, err)
		}
		executors = append(executors, httprt.New(name, url, sch))
	}
	return executors, nil
}

// buildHandler wires subgraph executors, composes the supergraph, and
// returns a ready-to-serve Handler plus the telemetry shutdown func. Split
// out from cmdServe so it can be exercised without binding a TCP listener.
func buildHandler(subgraphURLs, subgraphSchemas map[string]string, pretty bool, timeout time.Duration, forwardHeaders []string, otelEndpoint, otelService string) (*server.Handler, func(context.Context) error, error) {
	executors, err := buildExecutors(subgraphURLs, subgraphSchemas)
	if err != nil {
		return nil, nil, err
	}

	eventbus.Use(eventbus.New())
	shutdown, err := tracing.Setup(otelEndpoint, otelService)
	if err != nil {
		return nil, nil, fmt.Errorf("otel setup: %w", err)
	}

	gw, err := gateway.New(executors, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("compose gateway: %w", err)
	}

	var sopts []server.Option
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	if len(forwardHeaders) > 0 {
		sopts = append(sopts, server.WithForwardHeaders(forwardHeaders...))
	}
	h, err := server.New(gw, sopts...)
	if err != nil {
		return nil, nil, fmt.Errorf("server init: %w", err)
	}
	return h, shutdown, nil
}
