package cli

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/dispatch"
)

// DefaultShellTimeout limits the run time of one command
const DefaultShellTimeout = 30 * time.Second

// ShellExecutor runs the code with sh -c
type ShellExecutor struct {
	Shell   string
	Timeout time.Duration
}

var _ dispatch.UnsafeExecutor = (*ShellExecutor)(nil)

// NewShellExecutor returns the executor with the default timeout
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{
		Shell:   "sh",
		Timeout: DefaultShellTimeout,
	}
}

// Execute returns the combined output of the command
func (e *ShellExecutor) Execute(ctx context.Context, code string) (string, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	shell := e.Shell
	if shell == "" {
		shell = "sh"
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, shell, "-c", code)
	cmd.Stdout = &out
	cmd.Stderr = &out
	// children of the shell may keep the output open after it is killed
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return out.String(), errors.Newf("command timed out after %s", e.Timeout)
		}
		return out.String(), errors.Wrap(err, "command failed")
	}
	return out.String(), nil
}
