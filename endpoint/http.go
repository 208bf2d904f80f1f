package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HealthStatus is the body of the health response
type HealthStatus struct {
	Status    string `json:"status"`
	Transport string `json:"transport"`
}

// HTTPHandler returns the router serving the endpoint over HTTP:
//
//	GET  /health    health status
//	     /sse       SSE stream, the message endpoint is announced by the stream
//	     /messages  SSE messages
//	     /mcp       streamable HTTP
func (e *Endpoint) HTTPHandler(transport string) http.Handler {
	srv := e.MCPServer()
	getServer := func(*http.Request) *mcp.Server {
		return srv
	}

	sse := mcp.NewSSEHandler(getServer, nil)
	streamable := mcp.NewStreamableHTTPHandler(getServer, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(HealthStatus{
				Status:    "healthy",
				Transport: transport,
			})
		})
	})

	// streams are long-lived, no timeout
	r.Handle("/sse", sse)
	r.Handle("/messages", sse)
	r.Handle("/mcp", streamable)
	return r
}

// ListenAndServe serves the endpoint on addr until ctx is cancelled,
// then shuts down gracefully.
func (e *Endpoint) ListenAndServe(ctx context.Context, addr, transport string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Addr:              addr,
		Handler:           e.HTTPHandler(transport),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.KV(xlog.WARNING, "status", "shutdown_failed", "err", err.Error())
		}
	}()

	logger.ContextKV(ctx, xlog.INFO,
		"status", "serving",
		"transport", transport,
		"addr", addr,
		"tools", e.catalog.Len())

	err := server.ListenAndServe()
	// releases the shutdown watcher when listen fails
	cancel()
	<-done
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithMessagef(err, "unable to listen on %s", addr)
	}
	return nil
}
