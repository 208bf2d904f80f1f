package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/eztoolbox/dispatch"
)

var TimeNowFn = time.Now

type TurnStats struct {
	TurnID string

	Duration           time.Duration
	ModelCalls         uint32
	ModelCallsFailed   uint32
	ToolCalls          uint32
	ToolCallsSucceeded uint32
	ToolCallsFailed    uint32
}

// Scratchpad is a sink that collects the log and stats of each turn.
type Scratchpad struct {
	threadID string
	runs     map[string]*run
	mode     Mode
	lock     sync.Mutex

	last    *TurnStats
	lastLog []byte
}

func NewScratchpad(threadID string, mode Mode) *Scratchpad {
	return &Scratchpad{
		threadID: threadID,
		runs:     make(map[string]*run),
		mode:     mode,
	}
}

// Last returns the stats and the log of the last finished turn
func (l *Scratchpad) Last() (*TurnStats, []byte) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.last, l.lastLog
}

func (l *Scratchpad) getRun(turnID string) *run {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.runs[turnID]
}

func (l *Scratchpad) StartSpan(ctx context.Context, span dispatch.Span) {
	if span.Kind == dispatch.SpanTurn {
		r := &run{
			prefix:  l.threadID + "." + span.TurnID,
			started: span.Time,
			stats:   TurnStats{TurnID: span.TurnID},
		}
		if r.started.IsZero() {
			r.started = TimeNowFn()
		}
		l.lock.Lock()
		l.runs[span.TurnID] = r
		l.lock.Unlock()

		r.print("*** Turn Started ***")
		if l.mode == ModeVerbose {
			r.print("Input:", span.Input)
		}
		return
	}

	r := l.getRun(span.TurnID)
	if r == nil {
		return
	}
	switch span.Kind {
	case dispatch.SpanModel:
		atomic.AddUint32(&r.stats.ModelCalls, 1)
		r.print("*** Model Call ***", span.Name)
	case dispatch.SpanTool:
		atomic.AddUint32(&r.stats.ToolCalls, 1)
		r.print(span.Name, span.CorrelationID, "*** Tool Start ***")
		if l.mode == ModeVerbose {
			r.print(span.Name, "Input:", span.Input)
		}
	}
}

func (l *Scratchpad) EndSpan(ctx context.Context, span dispatch.Span) {
	r := l.getRun(span.TurnID)
	if r == nil {
		return
	}

	switch span.Kind {
	case dispatch.SpanModel:
		if span.Err != nil {
			atomic.AddUint32(&r.stats.ModelCallsFailed, 1)
			r.print("*** Model Error ***", span.Err.Error())
			return
		}
		if l.mode == ModeVerbose {
			r.print(span.Name, "Output:", span.Output)
		}
		r.print("*** Model Call End ***", span.Name)
	case dispatch.SpanTool:
		if span.Err != nil {
			atomic.AddUint32(&r.stats.ToolCallsFailed, 1)
			r.print(span.Name, span.CorrelationID, "*** Tool Error ***", span.Err.Error())
			return
		}
		atomic.AddUint32(&r.stats.ToolCallsSucceeded, 1)
		if l.mode == ModeVerbose {
			r.print(span.Name, "Output:", span.Output)
		}
		r.print(span.Name, span.CorrelationID, "*** Tool End ***")
	case dispatch.SpanTurn:
		l.endTurn(r, span)
	}
}

func (l *Scratchpad) endTurn(r *run, span dispatch.Span) {
	stats := TurnStats{
		TurnID:             r.stats.TurnID,
		Duration:           TimeNowFn().Sub(r.started),
		ModelCalls:         atomic.LoadUint32(&r.stats.ModelCalls),
		ModelCallsFailed:   atomic.LoadUint32(&r.stats.ModelCallsFailed),
		ToolCalls:          atomic.LoadUint32(&r.stats.ToolCalls),
		ToolCallsSucceeded: atomic.LoadUint32(&r.stats.ToolCallsSucceeded),
		ToolCallsFailed:    atomic.LoadUint32(&r.stats.ToolCallsFailed),
	}

	r.print(fmt.Sprintf("Model calls: %d, Failed: %d", stats.ModelCalls, stats.ModelCallsFailed))
	r.print(fmt.Sprintf("Tool calls: %d, Succeeded: %d, Failed: %d",
		stats.ToolCalls,
		stats.ToolCallsSucceeded,
		stats.ToolCallsFailed,
	))
	if span.Err != nil {
		r.print("*** Error ***", span.Err.Error())
	}
	r.print(fmt.Sprintf("*** Turn Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	delete(l.runs, span.TurnID)
	l.last = &stats
	l.lastLog = r.bytes()
	l.lock.Unlock()
}

type run struct {
	prefix  string
	w       bytes.Buffer
	started time.Time
	lock    sync.Mutex
	stats   TurnStats
}

// print writes the entries to the run's output.
// The entries are written in the following format:
// [timestamp threadID.turnID] entry entry\n
func (r *run) print(entries ...string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := TimeNowFn()
	ts := now.Format("2006-01-02 15:04:05")

	_, _ = r.w.WriteString(ts)
	_, _ = r.w.WriteString(" ")
	_, _ = r.w.WriteString(r.prefix)
	_, _ = r.w.WriteString(" ")

	for i, entry := range entries {
		if i > 0 {
			_, _ = r.w.WriteString(" ")
		}
		_, _ = r.w.WriteString(entry)
	}
	_, _ = r.w.WriteString("\n")
}

func (r *run) bytes() []byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]byte(nil), r.w.Bytes()...)
}
