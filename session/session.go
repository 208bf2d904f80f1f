// Package session implements the client side handle to one tool endpoint.
package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/pkg/metricskey"
	"github.com/effective-security/eztoolbox/tools"
	"github.com/effective-security/xlog"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "session")

// Status is the connection state of a session
type Status int

// Session states
const (
	Unconnected Status = iota
	Connecting
	Ready
	Failed
	Closed
)

func (s Status) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Option configures the Session
type Option func(*Session)

// WithDialer sets the transport dialer
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithClientInfo sets the client implementation reported to the endpoint
func WithClientInfo(name, version string) Option {
	return func(s *Session) {
		s.impl = &mcp.Implementation{Name: name, Version: version}
	}
}

// WithHTTPClient sets the HTTP client of network transports
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.httpClient = c
	}
}

// Session is a connection to one endpoint with its cached tool catalog.
// The catalog is fetched once on connect and never refreshed.
// Calls are serialized, the session never interleaves requests
// on its connection.
type Session struct {
	cfg        EndpointConfig
	dialer     Dialer
	httpClient *http.Client
	impl       *mcp.Implementation

	lock    sync.RWMutex
	status  Status
	conn    *mcp.ClientSession
	catalog *tools.Catalog
	lastErr error

	// sem serializes calls on the connection
	sem chan struct{}
}

// New returns an Unconnected session
func New(cfg EndpointConfig, opts ...Option) *Session {
	s := &Session{
		cfg:     cfg,
		impl:    &mcp.Implementation{Name: "ez-mcp-chat", Version: "v1.0.0"},
		catalog: tools.NewCatalog(),
		sem:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = NewDialer(s.httpClient)
	}
	return s
}

// Name returns the server name
func (s *Session) Name() string {
	return s.cfg.Name
}

// Config returns the endpoint config
func (s *Session) Config() EndpointConfig {
	return s.cfg
}

// Status returns the current state
func (s *Session) Status() Status {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.status
}

// LastError returns the error that moved the session to Failed
func (s *Session) LastError() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.lastErr
}

// Catalog returns the cached remote catalog, empty until Ready
func (s *Session) Catalog() *tools.Catalog {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.catalog
}

// Connect dials the endpoint and fetches its tools.
// It is valid only for an Unconnected session, on failure
// the session moves to Failed and stays there until Retry.
func (s *Session) Connect(ctx context.Context) error {
	s.lock.Lock()
	if s.status != Unconnected {
		st := s.status
		s.lock.Unlock()
		return errors.Newf("session %q: unable to connect in %s state", s.cfg.Name, st)
	}
	s.status = Connecting
	s.lock.Unlock()

	conn, catalog, err := s.dial(ctx)

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.status != Connecting {
		// closed while connecting
		if conn != nil {
			_ = conn.Close()
		}
		return errors.Newf("session %q: closed while connecting", s.cfg.Name)
	}

	if err != nil {
		s.status = Failed
		s.lastErr = err
		metricskey.StatsSessionConnectFailed.IncrCounter(1, s.cfg.Name)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "session_connect_failed",
			"server", s.cfg.Name,
			"transport", s.cfg.TransportKind(),
			"err", err.Error())
		return err
	}

	s.conn = conn
	s.catalog = catalog
	s.status = Ready
	s.lastErr = nil
	metricskey.StatsSessionConnectSucceeded.IncrCounter(1, s.cfg.Name)
	logger.ContextKV(ctx, xlog.INFO,
		"status", "session_connected",
		"server", s.cfg.Name,
		"transport", s.cfg.TransportKind(),
		"tools", catalog.Len(),
		"digest", catalog.Digest())
	return nil
}

func (s *Session) dial(ctx context.Context) (*mcp.ClientSession, *tools.Catalog, error) {
	timeout, err := s.cfg.ConnectTimeout()
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	transport, err := s.dialer(ctx, s.cfg)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "session %q: unable to create transport", s.cfg.Name)
	}

	client := mcp.NewClient(s.impl, nil)
	conn, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "session %q: unable to connect", s.cfg.Name)
	}

	var list []tools.ToolDescriptor
	params := &mcp.ListToolsParams{}
	for {
		res, err := conn.ListTools(ctx, params)
		if err != nil {
			_ = conn.Close()
			return nil, nil, errors.WithMessagef(err, "session %q: unable to list tools", s.cfg.Name)
		}
		for _, t := range res.Tools {
			list = append(list, tools.FromInputSchema(t.Name, t.Description, inputSchema(t.InputSchema)))
		}
		if res.NextCursor == "" {
			break
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}

	return conn, tools.NewRemoteCatalog(s.cfg.Name, list), nil
}

func inputSchema(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	var m map[string]any
	if js, err := json.Marshal(v); err == nil {
		_ = json.Unmarshal(js, &m)
	}
	return m
}

// Retry resets a Failed or Closed session and connects again
func (s *Session) Retry(ctx context.Context) error {
	s.lock.Lock()
	if s.status != Failed && s.status != Closed {
		st := s.status
		s.lock.Unlock()
		return errors.Newf("session %q: unable to retry in %s state", s.cfg.Name, st)
	}
	s.status = Unconnected
	s.catalog = tools.NewCatalog()
	s.lock.Unlock()

	logger.ContextKV(ctx, xlog.INFO,
		"status", "session_retry",
		"server", s.cfg.Name)
	return s.Connect(ctx)
}

// CallTool invokes the remote tool.
// A failure reported by the tool is ToolExecutionError,
// a broken connection moves the session to Failed and is marked ErrProtocol.
// Context cancellation does not affect the session.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	s.lock.RLock()
	st, conn, catalog := s.status, s.conn, s.catalog
	s.lock.RUnlock()

	if st != Ready {
		return nil, &SessionNotReadyError{Server: s.cfg.Name, Status: st}
	}
	if _, ok := catalog.Get(name); !ok {
		return nil, errors.WithMessagef(tools.ErrUnknownTool, "%q on server %q", name, s.cfg.Name)
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errors.WithStack(ctx.Err())
	}
	defer func() { <-s.sem }()

	if args == nil {
		args = map[string]any{}
	}

	started := time.Now()
	res, err := conn.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "tool_call_cancelled",
				"server", s.cfg.Name,
				"tool", name)
			return nil, errors.WithStack(ctx.Err())
		}
		if s.alive(conn) {
			// the endpoint answered with an error response
			return nil, &tools.ToolExecutionError{Tool: name, Err: err}
		}
		s.fail(ctx, conn, err)
		return nil, errors.Mark(errors.WithMessagef(err, "session %q", s.cfg.Name), ErrProtocol)
	}

	result := &Result{
		Tool:       name,
		Content:    res.Content,
		Structured: res.StructuredContent,
		IsError:    res.IsError,
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_called",
		"server", s.cfg.Name,
		"tool", name,
		"is_error", res.IsError,
		"elapsed", time.Since(started).String())

	if res.IsError {
		return result, &tools.ToolExecutionError{Tool: name, Err: errors.New(result.Text())}
	}
	return result, nil
}

// alive checks the connection after a failed call
func (s *Session) alive(conn *mcp.ClientSession) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Ping(ctx, nil) == nil
}

func (s *Session) fail(ctx context.Context, conn *mcp.ClientSession, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.conn != conn || s.status != Ready {
		return
	}
	s.status = Failed
	s.lastErr = err
	s.conn = nil
	_ = conn.Close()

	logger.ContextKV(ctx, xlog.ERROR,
		"status", "session_failed",
		"server", s.cfg.Name,
		"err", err.Error())
}

// Close releases the connection.
// Closing a Closed or Failed session is a no-op.
func (s *Session) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch s.status {
	case Closed, Failed:
		return nil
	}
	s.status = Closed

	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	if err := conn.Close(); err != nil && !errors.Is(err, io.EOF) {
		return errors.WithMessagef(err, "session %q: close", s.cfg.Name)
	}
	return nil
}
