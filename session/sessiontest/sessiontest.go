// Package sessiontest provides in-memory endpoints for session tests.
package sessiontest

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/endpoint"
	"github.com/effective-security/eztoolbox/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Network connects sessions to in-process endpoints by server name
type Network struct {
	lock      sync.Mutex
	endpoints map[string]*endpoint.Endpoint
	conns     map[string][]*mcp.ServerSession
	dials     map[string]int
}

// NewNetwork returns an empty network
func NewNetwork() *Network {
	return &Network{
		endpoints: make(map[string]*endpoint.Endpoint),
		conns:     make(map[string][]*mcp.ServerSession),
		dials:     make(map[string]int),
	}
}

// Add registers the endpoint under the server name
func (n *Network) Add(server string, e *endpoint.Endpoint) *Network {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.endpoints[server] = e
	return n
}

// Remove unregisters the server, later dials fail
func (n *Network) Remove(server string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	delete(n.endpoints, server)
}

// Dials returns the number of dials to the server
func (n *Network) Dials(server string) int {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.dials[server]
}

// Drop closes the server side of every connection to the server
func (n *Network) Drop(server string) {
	n.lock.Lock()
	conns := n.conns[server]
	delete(n.conns, server)
	n.lock.Unlock()

	for _, ss := range conns {
		_ = ss.Close()
	}
}

// Close drops all connections
func (n *Network) Close() {
	n.lock.Lock()
	var names []string
	for name := range n.conns {
		names = append(names, name)
	}
	n.lock.Unlock()

	for _, name := range names {
		n.Drop(name)
	}
}

// Dialer returns the session dialer
func (n *Network) Dialer() session.Dialer {
	return func(_ context.Context, cfg session.EndpointConfig) (mcp.Transport, error) {
		n.lock.Lock()
		defer n.lock.Unlock()

		n.dials[cfg.Name]++
		e, ok := n.endpoints[cfg.Name]
		if !ok {
			return nil, errors.Newf("server %q is unreachable", cfg.Name)
		}

		st, ct := mcp.NewInMemoryTransports()
		// the server side outlives the connect timeout
		ss, err := e.MCPServer().Connect(context.Background(), st, nil)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		n.conns[cfg.Name] = append(n.conns[cfg.Name], ss)
		return ct, nil
	}
}

// Config returns a stdio config for the server, suitable for the network dialer
func Config(server, description string) session.EndpointConfig {
	return session.EndpointConfig{
		Name:        server,
		Description: description,
		Command:     server,
		Timeout:     "5s",
	}
}
