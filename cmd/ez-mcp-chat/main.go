package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/effective-security/eztoolbox/callbacks"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/eztoolbox/internal/cli"
	"github.com/effective-security/eztoolbox/pkg/prompts"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "ez-mcp-chat")

type CLI struct {
	Config     string `name:"config" short:"c" default:"ez-config.json" help:"Config file with the servers and the model settings"`
	Provider   string `name:"provider" help:"Model provider: openai or anthropic"`
	Model      string `name:"model" short:"m" help:"Model name"`
	Verbose    bool   `name:"verbose" short:"v" help:"Print tool calls and model rounds"`
	UnsafeExec bool   `name:"unsafe-exec" help:"Allow ! shell commands"`
	Debug      bool   `name:"debug" help:"Enable debug logs"`
}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("ez-mcp-chat"),
		kong.Description("Chat with a model over the tools of MCP servers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	cli.SetupLogging(c.Debug)
	ctx.FatalIfErrorf(c.Run())
}

func (c *CLI) Run() error {
	cfg, err := cli.LoadChatConfig(c.Config)
	if err != nil {
		return err
	}
	cfg.Provider = values.StringsCoalesce(c.Provider, cfg.Provider)
	cfg.Model = values.StringsCoalesce(c.Model, cfg.Model)
	cfg.UnsafeExec = cfg.UnsafeExec || c.UnsafeExec

	model, err := cli.NewModel(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	p, err := pool.New(cfg.Endpoints())
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.KV(xlog.WARNING, "status", "close_failed", "err", err.Error())
		}
	}()

	p.ConnectAll(ctx)
	cli.PrintReport(os.Stdout, p.Report())

	var modelName string
	if named, ok := model.(dispatch.Named); ok {
		modelName = named.Name()
	}
	system, err := prompts.Render(
		values.StringsCoalesce(cfg.SystemPrompt, prompts.DefaultSystemPrompt),
		prompts.NewData(p, modelName))
	if err != nil {
		return err
	}

	threadID := uuid.NewString()
	pad := callbacks.NewScratchpad(threadID, callbacks.ModeDefault)
	loop := dispatch.New(p, model,
		dispatch.WithThreadID(threadID),
		dispatch.WithSystemPrompt(system),
		dispatch.WithMaxRounds(cfg.Rounds()),
		dispatch.WithUnsafeExecutor(cli.NewShellExecutor()),
		dispatch.WithUnsafeEnabled(cfg.UnsafeExec),
		dispatch.WithVerbose(c.Verbose),
		dispatch.WithVerboseSink(callbacks.NewPrinter(os.Stdout, callbacks.ModeVerbose)),
		dispatch.WithTraceSink(callbacks.NewFanout(
			callbacks.NewPackageLogger(logger),
			callbacks.NewOTel(nil),
			pad,
		)),
	)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	logger.KV(xlog.DEBUG,
		"status", "started",
		"thread", threadID,
		"provider", cfg.ProviderName(),
		"model", modelName)

	return cli.NewREPL(loop, os.Stdin, os.Stdout, interrupts).
		WithStats(pad).
		Run(ctx)
}
