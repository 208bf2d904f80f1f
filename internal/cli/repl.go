package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/callbacks"
	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/xlog"
)

// REPL reads commands and user input line by line
type REPL struct {
	loop *dispatch.Loop
	in   io.Reader
	out  io.Writer
	// interrupts cancel the running command only
	interrupts <-chan os.Signal
	stats      *callbacks.Scratchpad
}

// NewREPL returns the REPL over the loop,
// interrupts may be nil
func NewREPL(loop *dispatch.Loop, in io.Reader, out io.Writer, interrupts <-chan os.Signal) *REPL {
	return &REPL{
		loop:       loop,
		in:         in,
		out:        out,
		interrupts: interrupts,
	}
}

// WithStats prints the stats of each turn in verbose mode,
// pad must be registered as a trace sink of the loop
func (r *REPL) WithStats(pad *callbacks.Scratchpad) *REPL {
	r.stats = pad
	return r
}

// Run processes the input until /exit, end of input or ctx is cancelled
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(r.out, dimStyle.Render("Type /help for commands, /exit to quit."))
	for {
		fmt.Fprint(r.out, Prompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.interrupts:
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, dimStyle.Render("use /exit to quit"))
			continue
		case line, ok = <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return nil
			}
		}

		out, err := r.execute(ctx, dispatch.ParseCommand(line))
		if err != nil {
			if errors.Is(err, dispatch.ErrInterrupted) {
				fmt.Fprintln(r.out, dimStyle.Render("interrupted"))
			} else {
				PrintError(r.out, err)
			}
			logger.ContextKV(ctx, xlog.DEBUG, "status", "command_failed", "err", err.Error())
			continue
		}
		PrintOutcome(r.out, out)
		if out.Kind == dispatch.CommandInput && r.stats != nil && r.loop.Verbose() {
			if stats, _ := r.stats.Last(); stats != nil {
				PrintStats(r.out, stats)
			}
		}
		if out.Exit {
			return nil
		}
	}
}

// execute runs the command, an interrupt cancels it
func (r *REPL) execute(ctx context.Context, cmd dispatch.Command) (*dispatch.Outcome, error) {
	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-r.interrupts:
			cancel()
		case <-done:
		}
	}()

	out, err := r.loop.Execute(cmdCtx, cmd)
	close(done)
	<-stopped
	return out, err
}
