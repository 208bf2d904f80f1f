package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/pkg/metricskey"
	"github.com/effective-security/eztoolbox/session"
	"github.com/effective-security/xlog"
	"golang.org/x/sync/errgroup"
)

// batch collects results of one round by request index.
// Once closed, late results are discarded.
type batch struct {
	lock    sync.Mutex
	results []ToolCallResult
	done    []bool
	closed  bool
}

func (b *batch) set(i int, r ToolCallResult) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed || b.done[i] {
		return
	}
	b.results[i] = r
	b.done[i] = true
}

// close fills the unfinished requests with cancelled results
func (b *batch) close(calls []ToolCallRequest, reason error) []ToolCallResult {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.closed = true
	for i, done := range b.done {
		if !done {
			b.results[i] = cancelled(calls[i], reason)
		}
	}
	return append([]ToolCallResult(nil), b.results...)
}

type job struct {
	index   int
	session *session.Session
	tool    string
}

// execute runs the calls, serialized per session and concurrently across
// sessions, and returns one result per call in request order.
// On ctx cancellation the pending calls are reported as cancelled
// without waiting for them.
func (l *Loop) execute(ctx context.Context, turnID string, calls []ToolCallRequest) []ToolCallResult {
	b := &batch{
		results: make([]ToolCallResult, len(calls)),
		done:    make([]bool, len(calls)),
	}

	var order []string
	groups := make(map[string][]job)
	for i, call := range calls {
		s, tool, err := l.pool.Resolve(call.QualifiedName)
		if err != nil {
			metricskey.StatsToolCallsNotFound.IncrCounter(1, call.QualifiedName)
			logger.ContextKV(ctx, xlog.WARNING,
				"status", "tool_not_found",
				"turn", turnID,
				"tool_call_id", call.ID,
				"tool_name", call.QualifiedName,
				"err", err.Error())
			b.set(i, failure(call, err))
			continue
		}
		if _, ok := groups[s.Name()]; !ok {
			order = append(order, s.Name())
		}
		groups[s.Name()] = append(groups[s.Name()], job{index: i, session: s, tool: tool})
	}

	g := new(errgroup.Group)
	for _, name := range order {
		jobs := groups[name]
		g.Go(func() error {
			for _, j := range jobs {
				if ctx.Err() != nil {
					return nil
				}
				b.set(j.index, l.call(ctx, SpanTool, turnID, calls[j.index], j.session, j.tool))
			}
			return nil
		})
	}

	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
	}

	var reason error
	if ctx.Err() != nil {
		reason = context.Cause(ctx)
	}
	return b.close(calls, reason)
}

// call invokes one resolved tool, its failure is returned as a failed result
func (l *Loop) call(ctx context.Context, kind SpanKind, turnID string, req ToolCallRequest, s *session.Session, tool string) ToolCallResult {
	started := time.Now()
	span := Span{
		Kind:          kind,
		TurnID:        turnID,
		CorrelationID: req.ID,
		Name:          req.QualifiedName,
		Input:         toJSON(req.Arguments),
		Time:          started,
	}
	l.startSpan(ctx, span)

	res, err := s.CallTool(ctx, tool, req.Arguments)
	metricskey.PerfToolCall.MeasureSince(started, req.QualifiedName)

	var result ToolCallResult
	switch {
	case err != nil && ctx.Err() != nil:
		metricskey.StatsToolCallsCancelled.IncrCounter(1, req.QualifiedName)
		result = cancelled(req, context.Cause(ctx))
		span.Err = err
	case err != nil:
		metricskey.StatsToolCallsFailed.IncrCounter(1, req.QualifiedName)
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_call_failed",
			"turn", turnID,
			"tool_call_id", req.ID,
			"tool", req.QualifiedName,
			"err", err.Error())
		result = failure(req, err)
		span.Err = err
	default:
		metricskey.StatsToolCallsSucceeded.IncrCounter(1, req.QualifiedName)
		result = ToolCallResult{
			ID:            req.ID,
			QualifiedName: req.QualifiedName,
			Value:         res.Text(),
		}
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "tool_call_response",
			"turn", turnID,
			"tool_call_id", req.ID,
			"tool", req.QualifiedName,
			"content_length", len(result.Value))
	}

	span.Output = result.Content()
	l.endSpan(ctx, span)
	return result
}

func failure(req ToolCallRequest, err error) ToolCallResult {
	return ToolCallResult{
		ID:            req.ID,
		QualifiedName: req.QualifiedName,
		Failure:       fmt.Sprintf("Tool call failed: %s", err.Error()),
	}
}

func cancelled(req ToolCallRequest, reason error) ToolCallResult {
	if reason == nil {
		reason = errors.New("no response received")
	}
	return ToolCallResult{
		ID:            req.ID,
		QualifiedName: req.QualifiedName,
		Failure:       fmt.Sprintf("cancelled: %s", reason.Error()),
		Cancelled:     true,
	}
}
