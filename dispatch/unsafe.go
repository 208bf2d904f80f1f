package dispatch

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// UnsafeExecute runs the code with the configured executor.
// It is available only when enabled, and is never reachable from
// the model tool calls.
func (l *Loop) UnsafeExecute(ctx context.Context, code string) (out string, err error) {
	if !l.unsafeEnabled || l.unsafe == nil {
		return "", errors.WithStack(ErrUnsafeDisabled)
	}
	if code == "" {
		return "", errors.New("code is required")
	}

	span := Span{
		Kind:   SpanUnsafe,
		TurnID: NewTurnID(),
		Name:   "exec",
		Input:  code,
		Time:   time.Now(),
	}
	l.startSpan(ctx, span)

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = errors.Newf("unsafe execute panic: %v", r)
		}
		if err != nil {
			logger.ContextKV(ctx, xlog.WARNING,
				"status", "unsafe_execute_failed",
				"err", err.Error())
		}
		span.Output = out
		span.Err = err
		l.endSpan(ctx, span)
	}()

	return l.unsafe.Execute(ctx, code)
}
