package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/callbacks"
	"github.com/effective-security/eztoolbox/builtin"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/endpoint"
	"github.com/effective-security/eztoolbox/internal/cli"
	"github.com/effective-security/eztoolbox/mocks/mockdispatch"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/eztoolbox/session"
	"github.com/effective-security/eztoolbox/session/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newPool(t *testing.T) *pool.Pool {
	calc, errs := endpoint.FromFuncs("calc", "v1", builtin.Funcs())
	require.Empty(t, errs)
	n := sessiontest.NewNetwork().Add("calc", calc)
	t.Cleanup(n.Close)

	p, err := pool.New([]session.EndpointConfig{
		sessiontest.Config("calc", "calculator"),
		sessiontest.Config("weather", "forecasts"),
	}, pool.WithSessionOptions(session.WithDialer(n.Dialer())))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	p.ConnectAll(context.Background())
	return p
}

func writeFile(t *testing.T, name, content string) string {
	file := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func Test_LoadChatConfig(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		cfg, err := cli.LoadChatConfig(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)
		require.Len(t, cfg.Endpoints(), 1)
		assert.Equal(t, pool.DefaultServerName, cfg.Endpoints()[0].Name)
		assert.Equal(t, cli.ProviderOpenAI, cfg.ProviderName())
		assert.Equal(t, dispatch.DefaultMaxRounds, cfg.Rounds())

		cfg, err = cli.LoadChatConfig("")
		require.NoError(t, err)
		assert.Len(t, cfg.Endpoints(), 1)
	})

	t.Run("json", func(t *testing.T) {
		file := writeFile(t, "ez-config.json", `{
			"provider": "anthropic",
			"model": "claude-test",
			"api_key_env": "EZ_TEST_CHAT_KEY",
			"system_prompt": "be brief",
			"max_rounds": 3,
			"unsafe_exec": true,
			"mcp_servers": [
				{"name": "calc", "description": "calculator", "command": "ez-mcp-server"}
			]
		}`)
		cfg, err := cli.LoadChatConfig(file)
		require.NoError(t, err)
		assert.Equal(t, cli.ProviderAnthropic, cfg.ProviderName())
		assert.Equal(t, "claude-test", cfg.Model)
		assert.Equal(t, "be brief", cfg.SystemPrompt)
		assert.Equal(t, 3, cfg.Rounds())
		assert.True(t, cfg.UnsafeExec)
		require.Len(t, cfg.Endpoints(), 1)
		assert.Equal(t, "calc", cfg.Endpoints()[0].Name)

		t.Setenv("EZ_TEST_CHAT_KEY", "secret")
		assert.Equal(t, "secret", cfg.APIKey())
	})

	t.Run("yaml without servers", func(t *testing.T) {
		file := writeFile(t, "ez-config.yaml", "provider: openai\nmodel: gpt-test\n")
		cfg, err := cli.LoadChatConfig(file)
		require.NoError(t, err)
		assert.Equal(t, "gpt-test", cfg.Model)
		require.Len(t, cfg.Endpoints(), 1)
		assert.Equal(t, pool.DefaultServerName, cfg.Endpoints()[0].Name)
	})

	t.Run("invalid", func(t *testing.T) {
		file := writeFile(t, "ez-config.json", `{"provider": "gemini"}`)
		_, err := cli.LoadChatConfig(file)
		assert.ErrorContains(t, err, "invalid chat config")

		file = writeFile(t, "ez-config.json", `{"max_rounds": 1000}`)
		_, err = cli.LoadChatConfig(file)
		assert.ErrorContains(t, err, "invalid chat config")

		file = writeFile(t, "ez-config.json", `{"mcp_servers": [{"name": "calc"}]}`)
		_, err = cli.LoadChatConfig(file)
		assert.ErrorContains(t, err, "command is required for stdio transport")
	})
}

func Test_NewModel(t *testing.T) {
	t.Setenv("EZ_TEST_CHAT_KEY", "")
	cfg := &cli.ChatConfig{APIKeyEnv: "EZ_TEST_CHAT_KEY"}
	_, err := cli.NewModel(cfg)
	assert.True(t, errors.Is(err, cli.ErrNoAPIKey))

	t.Setenv("EZ_TEST_CHAT_KEY", "secret")
	m, err := cli.NewModel(cfg)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", m.(dispatch.Named).Name())

	cfg.Provider = cli.ProviderAnthropic
	cfg.Model = "claude-test"
	cfg.BaseURL = "http://localhost:1"
	m, err = cli.NewModel(cfg)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", m.(dispatch.Named).Name())

	cfg.Provider = "gemini"
	_, err = cli.NewModel(cfg)
	assert.EqualError(t, err, "unsupported provider: gemini")
}

func Test_PrintReport(t *testing.T) {
	var b bytes.Buffer
	cli.PrintReport(&b, newPool(t).Report())
	out := b.String()
	assert.Contains(t, out, "✓ Connected to calc: calculator\n")
	assert.Contains(t, out, "✗ Failed to connect to weather: ")
	assert.Contains(t, out, "unreachable")
}

func Test_RenderTools(t *testing.T) {
	assert.Contains(t, cli.RenderTools(nil), "no tools available")

	p := newPool(t)
	list, err := p.Tools("calc")
	require.NoError(t, err)
	out := cli.RenderTools(list)
	assert.Contains(t, out, "calc.add")
	assert.Contains(t, out, "calc.word_count")
	assert.Contains(t, out, "a:number")
}

func Test_ShellExecutor(t *testing.T) {
	e := cli.NewShellExecutor()
	out, err := e.Execute(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)

	out, err = e.Execute(context.Background(), "echo oops >&2; exit 3")
	assert.ErrorContains(t, err, "command failed")
	assert.Equal(t, "oops\n", out)

	e.Timeout = 50 * time.Millisecond
	_, err = e.Execute(context.Background(), "sleep 5")
	assert.EqualError(t, err, "command timed out after 50ms")
}

func Test_REPL(t *testing.T) {
	ctrl := gomock.NewController(t)
	model := mockdispatch.NewMockModel(ctrl)
	model.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(&dispatch.ModelResponse{Content: "Hello there."}, nil)

	p := newPool(t)
	loop := dispatch.New(p, model, dispatch.WithUnsafeExecutor(cli.NewShellExecutor()))

	in := strings.NewReader(strings.Join([]string{
		"/help",
		"",
		"hello",
		"/call calc.add a=1 b=2",
		"/call calc.divide a=1 b=0",
		"/tools calc",
		"/retry nowhere",
		"!echo hi",
		"/verbose",
		"/clear",
		"/exit",
		"never read",
	}, "\n"))
	var b bytes.Buffer
	require.NoError(t, cli.NewREPL(loop, in, &b, nil).Run(context.Background()))

	out := b.String()
	assert.Contains(t, out, dispatch.HelpText)
	assert.Contains(t, out, "Hello there.\n")
	assert.Contains(t, out, "✓ 3\n")
	assert.Contains(t, out, "✗ Tool call failed: tool \"divide\" failed: division by zero\n")
	assert.Contains(t, out, "calc.power")
	assert.Contains(t, out, "error: unknown server \"nowhere\"\n")
	assert.Contains(t, out, "error: unsafe execute is disabled\n")
	assert.Contains(t, out, "verbose on\n")
	assert.Contains(t, out, "history cleared\n")
	assert.NotContains(t, out, "never read")
	assert.Equal(t, 0, loop.History().Len())

	t.Run("eof", func(t *testing.T) {
		var b bytes.Buffer
		require.NoError(t, cli.NewREPL(loop, strings.NewReader("/verbose"), &b, nil).Run(context.Background()))
		assert.Contains(t, b.String(), "verbose off\n")
	})
}

func Test_REPL_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	model := mockdispatch.NewMockModel(ctrl)
	model.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(&dispatch.ModelResponse{Content: "Hi."}, nil).
		Times(2)

	pad := callbacks.NewScratchpad("thread", callbacks.ModeDefault)
	loop := dispatch.New(newPool(t), model, dispatch.WithTraceSink(pad))

	var b bytes.Buffer
	in := strings.NewReader("hello\n/verbose\nhello again\n")
	require.NoError(t, cli.NewREPL(loop, in, &b, nil).WithStats(pad).Run(context.Background()))
	assert.Equal(t, 1, strings.Count(b.String(), "model calls: 1, tool calls: 0 (0 failed)"))
}

func Test_REPL_Interrupt(t *testing.T) {
	ctrl := gomock.NewController(t)
	model := mockdispatch.NewMockModel(ctrl)

	started := make(chan struct{})
	model.EXPECT().Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *dispatch.ModelRequest) (*dispatch.ModelResponse, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})

	loop := dispatch.New(newPool(t), model)
	interrupts := make(chan os.Signal, 1)
	go func() {
		<-started
		interrupts <- os.Interrupt
	}()

	var b bytes.Buffer
	in := strings.NewReader("please wait\n/exit\n")
	require.NoError(t, cli.NewREPL(loop, in, &b, interrupts).Run(context.Background()))
	assert.Contains(t, b.String(), "interrupted\n")
	assert.Equal(t, dispatch.AwaitingInput, loop.State())
	assert.Equal(t, 0, loop.History().Len())
}
