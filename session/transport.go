package session

import (
	"context"
	"net/http"
	"os/exec"

	"github.com/cockroachdb/errors"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Dialer creates the client transport for the endpoint
type Dialer func(ctx context.Context, cfg EndpointConfig) (mcp.Transport, error)

// NewDialer returns the dialer for the configured transports,
// network transports use the HTTP client.
func NewDialer(client *http.Client) Dialer {
	if client == nil {
		client = http.DefaultClient
	}
	return func(_ context.Context, cfg EndpointConfig) (mcp.Transport, error) {
		httpClient := client
		if len(cfg.Headers) > 0 {
			base := client.Transport
			if base == nil {
				base = http.DefaultTransport
			}
			c := *client
			c.Transport = &headerTransport{base: base, headers: cfg.Headers}
			httpClient = &c
		}

		switch cfg.TransportKind() {
		case TransportStdio:
			if cfg.Command == "" {
				return nil, errors.Newf("server %q: command is not configured", cfg.Name)
			}
			cmd := exec.Command(cfg.Command, cfg.Args...)
			cmd.Env = cfg.Environ()
			return &mcp.CommandTransport{Command: cmd}, nil
		case TransportSSE:
			return &mcp.SSEClientTransport{
				Endpoint:   cfg.EndpointURL(),
				HTTPClient: httpClient,
			}, nil
		case TransportHTTP:
			return &mcp.StreamableClientTransport{
				Endpoint:   cfg.EndpointURL(),
				HTTPClient: httpClient,
			}, nil
		}
		return nil, errors.Newf("server %q: unsupported transport %q", cfg.Name, cfg.Transport)
	}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, ExpandEnv(v))
	}
	return t.base.RoundTrip(req)
}
