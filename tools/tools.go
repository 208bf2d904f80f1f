package tools

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// ITool is a tool callable with structured arguments.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	Description() string
	// Parameters returns the JSON schema of the tool input.
	Parameters() any
	// Descriptor returns the tool descriptor.
	Descriptor() ToolDescriptor

	// Call validates the arguments and executes the tool.
	// Validation failures are InvalidArgumentsError,
	// failures of the implementation are ToolExecutionError.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// NewTool binds the descriptor to its implementation
func NewTool(d ToolDescriptor, call Callable) ITool {
	return &boundTool{desc: d, call: call}
}

type boundTool struct {
	desc ToolDescriptor
	call Callable
}

var _ ITool = (*boundTool)(nil)

func (t *boundTool) Name() string {
	return t.desc.Name
}

func (t *boundTool) Description() string {
	return t.desc.Description
}

func (t *boundTool) Parameters() any {
	return t.desc.InputSchema()
}

func (t *boundTool) Descriptor() ToolDescriptor {
	return t.desc.Clone()
}

func (t *boundTool) Call(ctx context.Context, args map[string]any) (res any, err error) {
	if t.call == nil {
		return nil, &ToolExecutionError{Tool: t.desc.Name, Err: errors.New("tool has no local implementation")}
	}

	bound, err := t.desc.Bind(args)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &ToolExecutionError{Tool: t.desc.Name, Err: errors.Newf("panic: %s", fmt.Sprint(r))}
		}
	}()

	res, err = t.call(ctx, bound)
	if err != nil {
		return nil, &ToolExecutionError{Tool: t.desc.Name, Err: err}
	}
	return res, nil
}
