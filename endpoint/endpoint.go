// Package endpoint serves a tool catalog over the Model Context Protocol.
package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/pkg/metricskey"
	"github.com/effective-security/eztoolbox/tools"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "endpoint")

// Supported transports
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// Default serving parameters
const (
	DefaultHost = "localhost"
	DefaultPort = 8000
)

// Option configures the Endpoint
type Option func(*Endpoint)

// WithInstructions sets the instructions reported to clients on initialize
func WithInstructions(instructions string) Option {
	return func(e *Endpoint) {
		e.instructions = instructions
	}
}

// WithKeepAlive sets the interval of keep-alive pings to connected clients
func WithKeepAlive(d time.Duration) Option {
	return func(e *Endpoint) {
		e.keepAlive = d
	}
}

// Endpoint exposes a catalog of tools via list and call operations.
// Calls are executed one at a time, in arrival order.
type Endpoint struct {
	name    string
	version string
	catalog *tools.Catalog

	instructions string
	keepAlive    time.Duration

	// sem serializes tool calls
	sem chan struct{}

	once   sync.Once
	server *mcp.Server
}

// New returns an endpoint serving the catalog,
// the catalog must bind every tool to its implementation.
func New(name, version string, catalog *tools.Catalog, opts ...Option) *Endpoint {
	e := &Endpoint{
		name:    name,
		version: version,
		catalog: catalog.WithEndpoint(name),
		sem:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromFuncs synthesizes the declarations and returns the endpoint
// serving those that succeeded, with the per-declaration failures.
func FromFuncs(name, version string, funcs []tools.Func, opts ...Option) (*Endpoint, []error) {
	catalog, errs := tools.SynthesizeBatch(funcs)
	return New(name, version, catalog, opts...), errs
}

// Name returns the endpoint name
func (e *Endpoint) Name() string {
	return e.name
}

// Version returns the endpoint version
func (e *Endpoint) Version() string {
	return e.version
}

// Catalog returns the served catalog
func (e *Endpoint) Catalog() *tools.Catalog {
	return e.catalog
}

// ListTools returns the tool descriptors in declaration order
func (e *Endpoint) ListTools() []tools.ToolDescriptor {
	return e.catalog.List()
}

// Manifest describes the endpoint and its tools
type Manifest struct {
	Name    string                 `json:"name" yaml:"name" toml:"name"`
	Version string                 `json:"version" yaml:"version" toml:"version"`
	Tools   []tools.ToolDescriptor `json:"tools" yaml:"tools" toml:"tools"`
}

// Manifest returns the endpoint manifest
func (e *Endpoint) Manifest() Manifest {
	return Manifest{
		Name:    e.name,
		Version: e.version,
		Tools:   e.ListTools(),
	}
}

// CallTool validates the arguments and invokes the named tool.
// It returns tools.ErrUnknownTool for a name not in the catalog,
// InvalidArgumentsError when validation fails,
// and ToolExecutionError when the tool fails or panics.
func (e *Endpoint) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	tool, ok := e.catalog.Tool(name)
	if !ok {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "unknown_tool",
			"tool", name)
		return nil, errors.WithMessagef(tools.ErrUnknownTool, "%q", name)
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	}
	defer func() { <-e.sem }()

	if unknown := tool.Descriptor().Unknown(args); len(unknown) > 0 {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "ignored_arguments",
			"tool", name,
			"args", unknown)
	}

	started := time.Now()
	defer metricskey.PerfEndpointCall.MeasureSince(started, name)

	res, err := tool.Call(ctx, args)
	if err != nil {
		metricskey.StatsEndpointCallsFailed.IncrCounter(1, name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_call_failed",
			"tool", name,
			"err", err.Error())
		return nil, err
	}

	metricskey.StatsEndpointCallsSucceeded.IncrCounter(1, name)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_called",
		"tool", name,
		"elapsed", time.Since(started).String())
	return res, nil
}

// MCPServer returns the protocol server with every tool registered
func (e *Endpoint) MCPServer() *mcp.Server {
	e.once.Do(func() {
		s := mcp.NewServer(&mcp.Implementation{
			Name:    e.name,
			Version: e.version,
		}, &mcp.ServerOptions{
			Instructions: e.instructions,
			KeepAlive:    e.keepAlive,
		})

		for _, d := range e.catalog.List() {
			s.AddTool(&mcp.Tool{
				Name:        d.Name,
				Description: d.Description,
				InputSchema: d.InputSchema(),
			}, e.toolHandler(d.Name))
		}
		e.server = s
	})
	return e.server
}

func (e *Endpoint) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]any)
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult("invalid arguments: " + err.Error()), nil
			}
		}

		res, err := e.CallTool(ctx, name, args)
		if err != nil {
			// the client prefixes the tool name
			var terr *tools.ToolExecutionError
			if errors.As(err, &terr) && terr.Err != nil {
				return errorResult(terr.Err.Error()), nil
			}
			return errorResult(err.Error()), nil
		}

		text, err := RenderText(res)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "tool_result",
			"tool", name,
			"result", slices.StringUpto(text, 256))

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// RenderText returns the wire text of a tool result:
// strings and bytes as is, any other value as compact JSON.
func RenderText(v any) (string, error) {
	switch r := v.(type) {
	case string:
		return r, nil
	case []byte:
		return string(r), nil
	case fmt.Stringer:
		return r.String(), nil
	}
	js, err := json.Marshal(v)
	if err != nil {
		return "", errors.WithMessage(err, "unable to encode tool result")
	}
	return string(js), nil
}

// ServeStdio serves the endpoint on stdin and stdout until the client
// disconnects or ctx is cancelled.
func (e *Endpoint) ServeStdio(ctx context.Context) error {
	logger.ContextKV(ctx, xlog.INFO,
		"status", "serving",
		"transport", TransportStdio,
		"tools", e.catalog.Len())
	err := e.MCPServer().Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.WithMessage(err, "stdio transport")
	}
	return nil
}
