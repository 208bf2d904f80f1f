package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/eztoolbox/dispatch"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
)

// ensure that the sinks implement the correct interfaces
var (
	_ dispatch.TraceSink = (*Noop)(nil)
	_ dispatch.TraceSink = (*Printer)(nil)
	_ dispatch.TraceSink = (*PackageLogger)(nil)
	_ dispatch.TraceSink = (*Fanout)(nil)
	_ dispatch.TraceSink = (*OTel)(nil)
	_ dispatch.TraceSink = (*Scratchpad)(nil)
)

// Mode defines the mode for trace printing
type Mode int

const (
	// ModeDefault is the default mode for trace printing
	ModeDefault Mode = iota
	// ModeVerbose prints inputs and outputs
	ModeVerbose
)

// Fanout is a sink that forwards the spans to multiple sinks.
type Fanout struct {
	sinks []dispatch.TraceSink
}

func NewFanout(sinks ...dispatch.TraceSink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (l *Fanout) Add(sink dispatch.TraceSink) {
	l.sinks = append(l.sinks, sink)
}

func (l *Fanout) StartSpan(ctx context.Context, span dispatch.Span) {
	for _, sink := range l.sinks {
		sink.StartSpan(ctx, span)
	}
}

func (l *Fanout) EndSpan(ctx context.Context, span dispatch.Span) {
	for _, sink := range l.sinks {
		sink.EndSpan(ctx, span)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) StartSpan(ctx context.Context, span dispatch.Span) {}
func (l *Noop) EndSpan(ctx context.Context, span dispatch.Span) {}

var labels = map[dispatch.SpanKind]string{
	dispatch.SpanTurn:   "Turn",
	dispatch.SpanModel:  "Model Call",
	dispatch.SpanTool:   "Tool",
	dispatch.SpanInvoke: "Invoke",
	dispatch.SpanUnsafe: "Exec",
}

func label(kind dispatch.SpanKind) string {
	if l, ok := labels[kind]; ok {
		return l
	}
	return string(kind)
}

func spanName(span dispatch.Span) string {
	if span.CorrelationID != "" {
		return fmt.Sprintf("%s (%s)", span.Name, span.CorrelationID)
	}
	return span.Name
}

// Printer is a sink that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) StartSpan(ctx context.Context, span dispatch.Span) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "%s Start: %s\n", label(span.Kind), spanName(span))
	if l.Mode == ModeVerbose && span.Input != "" {
		fmt.Fprintf(l.Out, "Input: %s\n", span.Input)
	}
}

func (l *Printer) EndSpan(ctx context.Context, span dispatch.Span) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if span.Err != nil {
		fmt.Fprintf(l.Out, "%s Error: %s: %s\n", label(span.Kind), spanName(span), span.Err.Error())
		return
	}
	fmt.Fprintf(l.Out, "%s End: %s\n", label(span.Kind), spanName(span))
	if l.Mode == ModeVerbose && span.Output != "" {
		fmt.Fprintf(l.Out, "Output: %s\n", span.Output)
	}
}

// PackageLogger is a sink that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) StartSpan(ctx context.Context, span dispatch.Span) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", string(span.Kind)+"_start",
		"turn", span.TurnID,
		"id", span.CorrelationID,
		"name", span.Name,
		"input", slices.StringUpto(span.Input, 256),
	)
}

func (l *PackageLogger) EndSpan(ctx context.Context, span dispatch.Span) {
	if span.Err != nil {
		l.logger.ContextKV(ctx, xlog.ERROR,
			"event", string(span.Kind)+"_error",
			"turn", span.TurnID,
			"id", span.CorrelationID,
			"name", span.Name,
			"err", span.Err.Error(),
		)
		return
	}
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", string(span.Kind)+"_end",
		"turn", span.TurnID,
		"id", span.CorrelationID,
		"name", span.Name,
		"output", slices.StringUpto(span.Output, 256),
	)
}
