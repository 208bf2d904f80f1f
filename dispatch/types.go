package dispatch

import (
	"context"
	"time"

	"github.com/effective-security/eztoolbox/pool"
)

//go:generate mockgen -source=types.go -destination=../mocks/mockdispatch/mocks.go -package mockdispatch

// Role of the message author
type Role string

// Message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation history
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	// ToolCalls are set on assistant messages that request tools
	ToolCalls []ToolCallRequest `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	// Result is set on tool messages
	Result *ToolCallResult `json:"result,omitempty" yaml:"result,omitempty"`
}

// ToolCallRequest is a tool call requested by the model
type ToolCallRequest struct {
	// ID correlates the request with its result
	ID            string         `json:"id" yaml:"id"`
	QualifiedName string         `json:"name" yaml:"name"`
	Arguments     map[string]any `json:"arguments,omitempty" yaml:"arguments,omitempty"`
}

// ToolCallResult is the outcome of one ToolCallRequest,
// either Value or Failure is set
type ToolCallResult struct {
	ID            string `json:"id" yaml:"id"`
	QualifiedName string `json:"name" yaml:"name"`
	Value         string `json:"value,omitempty" yaml:"value,omitempty"`
	Failure       string `json:"failure,omitempty" yaml:"failure,omitempty"`
	// Cancelled is set when the call was interrupted
	Cancelled bool `json:"cancelled,omitempty" yaml:"cancelled,omitempty"`
}

// Failed returns true if the call did not succeed
func (r ToolCallResult) Failed() bool {
	return r.Failure != ""
}

// Content returns the text presented to the model
func (r ToolCallResult) Content() string {
	if r.Failed() {
		return r.Failure
	}
	return r.Value
}

// ModelRequest is the input of the model
type ModelRequest struct {
	SystemPrompt string
	History      []Message
	Catalog      []pool.Tool
}

// ModelResponse is either a final message, or tool calls
type ModelResponse struct {
	Content   string
	ToolCalls []ToolCallRequest
}

// Model is the language model capability
type Model interface {
	Generate(ctx context.Context, req *ModelRequest) (*ModelResponse, error)
}

// Named is implemented by models that report their name
type Named interface {
	Name() string
}

// SpanKind is the kind of the traced operation
type SpanKind string

// Span kinds
const (
	SpanTurn   SpanKind = "turn"
	SpanModel  SpanKind = "model"
	SpanTool   SpanKind = "tool"
	SpanInvoke SpanKind = "invoke"
	SpanUnsafe SpanKind = "unsafe"
)

// Span is a trace record, the same span is passed to StartSpan and EndSpan,
// with Output and Err set on end
type Span struct {
	Kind   SpanKind
	TurnID string
	// CorrelationID is the tool call ID, empty for turn and model spans
	CorrelationID string
	Name          string
	Input         string
	Output        string
	Err           error
	Time          time.Time
}

// TraceSink receives the trace records
type TraceSink interface {
	StartSpan(ctx context.Context, span Span)
	EndSpan(ctx context.Context, span Span)
}

// UnsafeExecutor runs code typed by the user, outside of tool dispatch
type UnsafeExecutor interface {
	Execute(ctx context.Context, code string) (string, error)
}

// State of the loop
type State int32

// Loop states
const (
	AwaitingInput State = iota
	Dispatching
	AwaitingModel
	ExecutingTools
	Idle
)

func (s State) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting_input"
	case Dispatching:
		return "dispatching"
	case AwaitingModel:
		return "awaiting_model"
	case ExecutingTools:
		return "executing_tools"
	case Idle:
		return "idle"
	}
	return "unknown"
}

// Reply is the outcome of a turn
type Reply struct {
	TurnID  string
	Content string
	// ToolResults are the results of all tool calls in the turn, in request order
	ToolResults []ToolCallResult
	// Rounds is the number of model calls
	Rounds int
}
