// Package dispatch drives the conversation between the user, the model
// and the tool servers.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/eztoolbox/pkg/metricskey"
	"github.com/effective-security/eztoolbox/pool"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xdb/pkg/flake"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/eztoolbox", "dispatch")

// DefaultMaxRounds is the default number of model calls per turn
const DefaultMaxRounds = 10

// Option configures the Loop
type Option func(*Loop)

// WithTraceSink sets the trace sink
func WithTraceSink(sink TraceSink) Option {
	return func(l *Loop) {
		l.sink = sink
	}
}

// WithVerboseSink sets the sink that receives spans while verbose is on
func WithVerboseSink(sink TraceSink) Option {
	return func(l *Loop) {
		l.verboseSink = sink
	}
}

// WithMaxRounds limits the number of model calls per turn
func WithMaxRounds(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxRounds = n
		}
	}
}

// WithUnsafeExecutor sets the executor of /exec commands
func WithUnsafeExecutor(e UnsafeExecutor) Option {
	return func(l *Loop) {
		l.unsafe = e
	}
}

// WithUnsafeEnabled allows UnsafeExecute
func WithUnsafeEnabled(enabled bool) Option {
	return func(l *Loop) {
		l.unsafeEnabled = enabled
	}
}

// WithSystemPrompt sets the system prompt sent with every model call
func WithSystemPrompt(prompt string) Option {
	return func(l *Loop) {
		l.systemPrompt = prompt
	}
}

// WithThreadID sets the conversation ID, a random UUID by default
func WithThreadID(id string) Option {
	return func(l *Loop) {
		l.threadID = id
	}
}

// WithVerbose sets the initial verbose mode
func WithVerbose(verbose bool) Option {
	return func(l *Loop) {
		l.verbose.Store(verbose)
	}
}

// Loop is the dispatch loop of one conversation
type Loop struct {
	pool  *pool.Pool
	model Model

	history History

	sink          TraceSink
	verboseSink   TraceSink
	maxRounds     int
	unsafe        UnsafeExecutor
	unsafeEnabled bool
	systemPrompt  string
	threadID      string

	verbose atomic.Bool
	state   atomic.Int32
	busy    atomic.Bool
}

// New returns the loop over the pool
func New(p *pool.Pool, model Model, opts ...Option) *Loop {
	l := &Loop{
		pool:      p,
		model:     model,
		maxRounds: DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.threadID == "" {
		l.threadID = uuid.NewString()
	}
	return l
}

// NewTurnID returns a unique turn ID
func NewTurnID() string {
	return strconv.FormatUint(flake.DefaultIDGenerator.NextID(), 10)
}

// ThreadID returns the conversation ID
func (l *Loop) ThreadID() string {
	return l.threadID
}

// Pool returns the session pool
func (l *Loop) Pool() *pool.Pool {
	return l.pool
}

// History returns the conversation history
func (l *Loop) History() *History {
	return &l.history
}

// State returns the current state
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Verbose returns true if the verbose tracing is on
func (l *Loop) Verbose() bool {
	return l.verbose.Load()
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

func (l *Loop) modelName() string {
	if n, ok := l.model.(Named); ok {
		return n.Name()
	}
	return "model"
}

// Turn processes one user input until the model returns the final message.
// Tool failures are reported to the model as failed results,
// a model failure restores the history to its state before the turn.
func (l *Loop) Turn(ctx context.Context, input string) (*Reply, error) {
	if !l.busy.CompareAndSwap(false, true) {
		return nil, errors.WithStack(ErrBusy)
	}
	defer l.busy.Store(false)
	defer l.setState(AwaitingInput)

	started := time.Now()
	defer metricskey.PerfTurn.MeasureSince(started, l.threadID)

	span := Span{
		Kind:   SpanTurn,
		TurnID: NewTurnID(),
		Name:   l.threadID,
		Input:  input,
		Time:   started,
	}
	l.startSpan(ctx, span)

	reply, err := l.turn(ctx, span.TurnID, input)

	span.Err = err
	if reply != nil {
		span.Output = reply.Content
	}
	l.endSpan(ctx, span)
	return reply, err
}

func (l *Loop) turn(ctx context.Context, turnID, input string) (*Reply, error) {
	mark := l.history.Len()
	l.history.append(Message{Role: RoleUser, Content: input})
	l.setState(Dispatching)

	reply := &Reply{TurnID: turnID}
	for {
		if reply.Rounds >= l.maxRounds {
			logger.ContextKV(ctx, xlog.WARNING,
				"status", "max_rounds_exceeded",
				"thread", l.threadID,
				"turn", turnID,
				"rounds", reply.Rounds)
			return reply, errors.WithMessagef(ErrMaxRounds, "%d rounds", reply.Rounds)
		}

		l.setState(AwaitingModel)
		reply.Rounds++
		resp, err := l.generate(ctx, turnID)
		if err != nil {
			l.history.truncate(mark)
			err = errors.Mark(errors.WithMessage(err, "model call failed"), ErrModel)
			if ctx.Err() != nil {
				err = errors.Mark(err, ErrInterrupted)
			}
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			l.history.append(Message{Role: RoleAssistant, Content: resp.Content})
			l.setState(Idle)
			reply.Content = resp.Content
			return reply, nil
		}

		calls := make([]ToolCallRequest, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			if tc.ID == "" {
				tc.ID = fmt.Sprintf("%s_%d", tc.QualifiedName, i)
			}
			if tc.Arguments == nil {
				tc.Arguments = map[string]any{}
			}
			calls[i] = tc
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "tool_call_found",
				"turn", turnID,
				"tool_call_id", tc.ID,
				"tool_call_name", tc.QualifiedName)
		}
		l.history.append(Message{Role: RoleAssistant, Content: resp.Content, ToolCalls: calls})

		l.setState(ExecutingTools)
		results := l.execute(ctx, turnID, calls)

		msgs := make([]Message, len(results))
		for i := range results {
			r := results[i]
			msgs[i] = Message{Role: RoleTool, Content: r.Content(), Result: &r}
		}
		l.history.append(msgs...)
		reply.ToolResults = append(reply.ToolResults, results...)

		if ctx.Err() != nil {
			logger.ContextKV(ctx, xlog.INFO,
				"status", "turn_interrupted",
				"thread", l.threadID,
				"turn", turnID)
			return reply, errors.WithStack(ErrInterrupted)
		}
	}
}

func (l *Loop) generate(ctx context.Context, turnID string) (*ModelResponse, error) {
	req := &ModelRequest{
		SystemPrompt: l.systemPrompt,
		History:      l.history.Messages(),
		Catalog:      l.pool.AggregatedCatalog(),
	}

	modelName := l.modelName()
	started := time.Now()
	span := Span{
		Kind:   SpanModel,
		TurnID: turnID,
		Name:   modelName,
		Input:  lastContent(req.History),
		Time:   started,
	}
	l.startSpan(ctx, span)

	resp, err := l.model.Generate(ctx, req)
	metricskey.PerfModelCall.MeasureSince(started, modelName)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}

	if err != nil {
		metricskey.StatsModelCallsFailed.IncrCounter(1, modelName)
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "model_call_failed",
			"model", modelName,
			"turn", turnID,
			"err", err.Error())
		span.Err = err
		l.endSpan(ctx, span)
		return nil, err
	}

	metricskey.StatsModelCallsSucceeded.IncrCounter(1, modelName)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "model_called",
		"model", modelName,
		"turn", turnID,
		"messages", len(req.History),
		"tools", len(req.Catalog),
		"tool_calls", len(resp.ToolCalls),
		"elapsed", time.Since(started).String())

	span.Output = resp.Content
	if len(resp.ToolCalls) > 0 {
		span.Output = toJSON(resp.ToolCalls)
	}
	l.endSpan(ctx, span)
	return resp, nil
}

func (l *Loop) startSpan(ctx context.Context, span Span) {
	if l.sink != nil {
		l.sink.StartSpan(ctx, span)
	}
	if l.verboseSink != nil && l.verbose.Load() {
		l.verboseSink.StartSpan(ctx, span)
	}
}

func (l *Loop) endSpan(ctx context.Context, span Span) {
	if l.sink != nil {
		l.sink.EndSpan(ctx, span)
	}
	if l.verboseSink != nil && l.verbose.Load() {
		l.verboseSink.EndSpan(ctx, span)
	}
}

func lastContent(history []Message) string {
	if len(history) == 0 {
		return ""
	}
	last := history[len(history)-1]
	if last.Role == RoleTool {
		return slices.StringUpto(last.Content, 256)
	}
	return last.Content
}

func toJSON(v any) string {
	js, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(js)
}
