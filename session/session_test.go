package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/builtin"
	"github.com/effective-security/eztoolbox/endpoint"
	"github.com/effective-security/eztoolbox/session"
	"github.com/effective-security/eztoolbox/session/sessiontest"
	"github.com/effective-security/eztoolbox/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNetwork(t *testing.T) *sessiontest.Network {
	e, errs := endpoint.FromFuncs("calc", "v1.0.0", builtin.Funcs())
	require.Empty(t, errs)
	n := sessiontest.NewNetwork().Add("calc", e)
	t.Cleanup(n.Close)
	return n
}

func Test_Status(t *testing.T) {
	assert.Equal(t, "unconnected", session.Unconnected.String())
	assert.Equal(t, "connecting", session.Connecting.String())
	assert.Equal(t, "ready", session.Ready.String())
	assert.Equal(t, "failed", session.Failed.String())
	assert.Equal(t, "closed", session.Closed.String())
	assert.Equal(t, "unknown", session.Status(42).String())
}

func Test_Connect(t *testing.T) {
	n := newNetwork(t)
	ctx := context.Background()

	s := session.New(sessiontest.Config("calc", "calculator"), session.WithDialer(n.Dialer()))
	assert.Equal(t, "calc", s.Name())
	assert.Equal(t, "calculator", s.Config().Description)
	assert.Equal(t, session.Unconnected, s.Status())
	assert.Equal(t, 0, s.Catalog().Len())

	_, err := s.CallTool(ctx, "add", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, session.ErrSessionNotReady))
	assert.EqualError(t, err, `session "calc" is not ready: unconnected`)

	require.NoError(t, s.Connect(ctx))
	assert.Equal(t, session.Ready, s.Status())
	assert.NoError(t, s.LastError())

	cat := s.Catalog()
	assert.ElementsMatch(t, []string{"add", "subtract", "multiply", "divide", "power", "echo", "word_count"}, cat.Names())

	add, ok := cat.Get("add")
	require.True(t, ok)
	assert.Equal(t, "calc", add.Endpoint)
	assert.Equal(t, "Add two numbers.", add.Description)
	assert.Equal(t, []string{"a", "b"}, add.Required())

	power, ok := cat.Get("power")
	require.True(t, ok)
	exp, ok := power.Param("exponent")
	require.True(t, ok)
	assert.False(t, exp.Required)

	err = s.Connect(ctx)
	assert.EqualError(t, err, `session "calc": unable to connect in ready state`)
	assert.Equal(t, 1, n.Dials("calc"))

	err = s.Retry(ctx)
	assert.EqualError(t, err, `session "calc": unable to retry in ready state`)

	require.NoError(t, s.Close())
	assert.Equal(t, session.Closed, s.Status())
	require.NoError(t, s.Close())

	_, err = s.CallTool(ctx, "add", nil)
	assert.True(t, errors.Is(err, session.ErrSessionNotReady))

	require.NoError(t, s.Retry(ctx))
	assert.Equal(t, session.Ready, s.Status())
	assert.Equal(t, 2, n.Dials("calc"))
	require.NoError(t, s.Close())
}

func Test_Connect_Failed(t *testing.T) {
	n := newNetwork(t)
	ctx := context.Background()

	s := session.New(sessiontest.Config("weather", ""), session.WithDialer(n.Dialer()))
	err := s.Connect(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `server "weather" is unreachable`)
	assert.Equal(t, session.Failed, s.Status())
	assert.Equal(t, err, s.LastError())
	assert.Equal(t, 0, s.Catalog().Len())

	// failed stays failed until retry
	assert.Error(t, s.Connect(ctx))
	assert.Equal(t, 1, n.Dials("weather"))
	assert.NoError(t, s.Close())
	assert.Equal(t, session.Failed, s.Status())

	e, errs := endpoint.FromFuncs("weather", "v1", []tools.Func{
		{
			Name:   "forecast",
			Doc:    "Weather forecast.",
			Params: []tools.Param{tools.Required("city", "str")},
			Call: func(_ context.Context, args tools.Args) (any, error) {
				return "sunny in " + args.String("city"), nil
			},
		},
	})
	require.Empty(t, errs)
	n.Add("weather", e)

	require.NoError(t, s.Retry(ctx))
	assert.Equal(t, session.Ready, s.Status())
	assert.NoError(t, s.LastError())

	res, err := s.CallTool(ctx, "forecast", map[string]any{"city": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "sunny in Paris", res.Text())
}

func Test_CallTool(t *testing.T) {
	n := newNetwork(t)
	ctx := context.Background()

	s := session.New(sessiontest.Config("calc", ""), session.WithDialer(n.Dialer()))
	require.NoError(t, s.Connect(ctx))
	defer s.Close()

	res, err := s.CallTool(ctx, "add", map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, "add", res.Tool)
	assert.False(t, res.IsError)
	assert.Equal(t, "5", res.Text())

	res, err = s.CallTool(ctx, "divide", map[string]any{"a": 4, "b": 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tools.ErrToolExecution))
	require.NotNil(t, res)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "division by zero")
	assert.Equal(t, session.Ready, s.Status())

	_, err = s.CallTool(ctx, "modulo", nil)
	assert.True(t, errors.Is(err, tools.ErrUnknownTool))

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.CallTool(cctx, "add", map[string]any{"a": 1, "b": 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, session.Ready, s.Status())
	})

	t.Run("protocol", func(t *testing.T) {
		n.Drop("calc")
		_, err := s.CallTool(ctx, "add", map[string]any{"a": 1, "b": 1})
		require.Error(t, err)
		assert.True(t, errors.Is(err, session.ErrProtocol))
		assert.Equal(t, session.Failed, s.Status())
		assert.Error(t, s.LastError())

		_, err = s.CallTool(ctx, "add", map[string]any{"a": 1, "b": 1})
		assert.True(t, errors.Is(err, session.ErrSessionNotReady))

		require.NoError(t, s.Retry(ctx))
		res, err := s.CallTool(ctx, "subtract", map[string]any{"a": 5, "b": 1})
		require.NoError(t, err)
		assert.Equal(t, "4", res.Text())
	})
}

func Test_HTTP(t *testing.T) {
	e, errs := endpoint.FromFuncs("calc", "v1.0.0", builtin.Funcs())
	require.Empty(t, errs)

	var token atomic.Value
	h := e.HTTPHandler(endpoint.TransportHTTP)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token.Store(r.Header.Get("Authorization"))
		h.ServeHTTP(w, r)
	}))
	defer ts.Close()

	t.Setenv("EZ_TEST_TOKEN", "Bearer secret")

	ctx := context.Background()
	s := session.New(session.EndpointConfig{
		Name:      "calc",
		Transport: session.TransportHTTP,
		URL:       ts.URL + "/mcp",
		Headers:   map[string]string{"Authorization": "${EZ_TEST_TOKEN}"},
	}, session.WithHTTPClient(ts.Client()))
	require.NoError(t, s.Connect(ctx))
	defer s.Close()

	assert.Equal(t, "Bearer secret", token.Load())
	assert.Equal(t, 7, s.Catalog().Len())

	res, err := s.CallTool(ctx, "echo", map[string]any{"message": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text())
}
