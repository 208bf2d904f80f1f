// Package pool manages the sessions to all configured tool servers.
package pool

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/session"
	"github.com/effective-security/eztoolbox/tools"
	"github.com/effective-security/xlog"
	"golang.org/x/sync/errgroup"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "pool")

// Separator of the server and tool names in a qualified name
const Separator = "."

// Tool is a descriptor tagged with its owning server
type Tool struct {
	Server     string
	Descriptor tools.ToolDescriptor
}

// QualifiedName returns server.tool
func (t Tool) QualifiedName() string {
	return QualifiedName(t.Server, t.Descriptor.Name)
}

// QualifiedName joins the server and tool names
func QualifiedName(server, tool string) string {
	return server + Separator + tool
}

// SplitQualifiedName splits server.tool on the first separator.
// A malformed name fails with UnknownServerError marked as ErrInvalidQualifiedName.
func SplitQualifiedName(qualified string) (server, tool string, err error) {
	server, tool, ok := strings.Cut(qualified, Separator)
	if !ok || server == "" || tool == "" {
		err = errors.Mark(&UnknownServerError{Server: server}, ErrInvalidQualifiedName)
		return "", "", errors.WithMessagef(err, "invalid qualified name %q", qualified)
	}
	return server, tool, nil
}

// Status describes one server for the connect report
type Status struct {
	Name        string
	Description string
	Status      session.Status
	Err         error
}

// Option configures the Pool
type Option func(*Pool)

// WithSessionOptions sets the options of every session
func WithSessionOptions(opts ...session.Option) Option {
	return func(p *Pool) {
		p.sessionOpts = append(p.sessionOpts, opts...)
	}
}

// WithConcurrency limits the number of parallel connects
func WithConcurrency(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// Pool is the set of sessions, keyed by server name.
// The set is fixed at construction.
type Pool struct {
	order       []string
	sessions    map[string]*session.Session
	sessionOpts []session.Option
	concurrency int
}

// New returns the pool of Unconnected sessions in config order
func New(configs []session.EndpointConfig, opts ...Option) (*Pool, error) {
	p := &Pool{
		sessions:    make(map[string]*session.Session, len(configs)),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, ok := p.sessions[cfg.Name]; ok {
			return nil, errors.Newf("duplicate server name %q", cfg.Name)
		}
		p.order = append(p.order, cfg.Name)
		p.sessions[cfg.Name] = session.New(cfg, p.sessionOpts...)
	}
	return p, nil
}

// Names returns the server names in config order
func (p *Pool) Names() []string {
	return append([]string(nil), p.order...)
}

// Session returns the named session
func (p *Pool) Session(name string) (*session.Session, bool) {
	s, ok := p.sessions[name]
	return s, ok
}

// ConnectAll connects every Unconnected session in parallel,
// and returns names of the servers that failed, in config order.
func (p *Pool) ConnectAll(ctx context.Context) []string {
	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)

	for _, name := range p.order {
		s := p.sessions[name]
		if s.Status() != session.Unconnected {
			continue
		}
		g.Go(func() error {
			// failures are kept by the session
			_ = s.Connect(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for _, name := range p.order {
		if p.sessions[name].Status() == session.Failed {
			failed = append(failed, name)
		}
	}

	logger.ContextKV(ctx, xlog.INFO,
		"status", "pool_connected",
		"servers", len(p.order),
		"failed", failed)
	return failed
}

// Errors returns the last connect error of each failed server
func (p *Pool) Errors() map[string]error {
	res := make(map[string]error)
	for _, name := range p.order {
		s := p.sessions[name]
		if s.Status() == session.Failed {
			res[name] = s.LastError()
		}
	}
	return res
}

// Report returns the status of every server in config order
func (p *Pool) Report() []Status {
	res := make([]Status, 0, len(p.order))
	for _, name := range p.order {
		s := p.sessions[name]
		st := Status{
			Name:        name,
			Description: s.Config().Description,
			Status:      s.Status(),
		}
		if st.Status == session.Failed {
			st.Err = s.LastError()
		}
		res = append(res, st)
	}
	return res
}

// Resolve returns the Ready session and the bare tool name of server.tool
func (p *Pool) Resolve(qualified string) (*session.Session, string, error) {
	server, tool, err := SplitQualifiedName(qualified)
	if err != nil {
		return nil, "", err
	}
	s, ok := p.sessions[server]
	if !ok || s.Status() != session.Ready {
		return nil, "", &UnknownServerError{Server: server}
	}
	if _, ok := s.Catalog().Get(tool); !ok {
		return nil, "", &UnknownToolError{Server: server, Tool: tool}
	}
	return s, tool, nil
}

// AggregatedCatalog returns tools of all Ready sessions,
// in config order then declaration order.
func (p *Pool) AggregatedCatalog() []Tool {
	var res []Tool
	for _, name := range p.order {
		res = append(res, p.tools(name)...)
	}
	return res
}

// Tools returns the tools of one Ready server
func (p *Pool) Tools(server string) ([]Tool, error) {
	s, ok := p.sessions[server]
	if !ok || s.Status() != session.Ready {
		return nil, &UnknownServerError{Server: server}
	}
	return p.tools(server), nil
}

func (p *Pool) tools(name string) []Tool {
	s := p.sessions[name]
	if s.Status() != session.Ready {
		return nil
	}
	list := s.Catalog().List()
	res := make([]Tool, 0, len(list))
	for _, d := range list {
		res = append(res, Tool{Server: name, Descriptor: d})
	}
	return res
}

// Retry reconnects a Failed or Closed server
func (p *Pool) Retry(ctx context.Context, server string) error {
	s, ok := p.sessions[server]
	if !ok {
		return &UnknownServerError{Server: server}
	}
	return s.Retry(ctx)
}

// Close closes all sessions
func (p *Pool) Close() error {
	var errs []error
	for _, name := range p.order {
		if err := p.sessions[name].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
