package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/builtin"
	"github.com/effective-security/eztoolbox/encoding"
	"github.com/effective-security/eztoolbox/endpoint"
	"github.com/effective-security/eztoolbox/internal/cli"
)

var version = "v0.1.0"

type CLI struct {
	Globals

	Serve ServeCmd `cmd:"" default:"withargs" help:"Serve the default tools (default)"`
	List  ListCmd  `cmd:"" help:"Print the tool manifest"`
}

type Globals struct {
	Debug bool `name:"debug" help:"Enable debug logs"`

	ctx context.Context
}

type ServeCmd struct {
	Transport string `name:"transport" enum:"stdio,sse,http" default:"stdio" help:"Transport: stdio, sse or http"`
	Host      string `name:"host" default:"localhost" help:"Listen host for sse and http"`
	Port      int    `name:"port" default:"8000" help:"Listen port for sse and http"`

	KeepAlive time.Duration `name:"keep-alive" default:"0s" help:"Interval of keep-alive pings to clients, 0 disables them"`
}

type ListCmd struct {
	Format string `name:"format" short:"f" enum:"json,yaml,toml" default:"json" help:"Output format: json, yaml or toml"`
}

func main() {
	var c CLI
	cmd := kong.Parse(&c,
		kong.Name(builtin.ServerName),
		kong.Description(builtin.ServerDescription),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	cli.SetupLogging(c.Debug)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	c.ctx = ctx

	cmd.FatalIfErrorf(cmd.Run(&c.Globals))
}

func newEndpoint(opts ...endpoint.Option) (*endpoint.Endpoint, error) {
	opts = append([]endpoint.Option{endpoint.WithInstructions(builtin.ServerDescription)}, opts...)
	e, errs := endpoint.FromFuncs(builtin.ServerName, version, builtin.Funcs(), opts...)
	if len(errs) > 0 {
		return nil, errors.WithMessage(errors.Join(errs...), "unable to build tools")
	}
	return e, nil
}

func (s *ServeCmd) Run(g *Globals) error {
	e, err := newEndpoint(endpoint.WithKeepAlive(s.KeepAlive))
	if err != nil {
		return err
	}
	if s.Transport == endpoint.TransportStdio {
		return e.ServeStdio(g.ctx)
	}

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	fmt.Fprintf(os.Stderr, "%s %s listening on %s (%s)\n", builtin.ServerName, version, addr, s.Transport)
	return e.ListenAndServe(g.ctx, addr, s.Transport)
}

func (l *ListCmd) Run(g *Globals) error {
	e, err := newEndpoint()
	if err != nil {
		return err
	}
	b, err := encoding.Marshal(l.Format, e.Manifest())
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}
