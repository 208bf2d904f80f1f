package tools

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrSchemaGeneration is matched by SchemaGenerationError.
	ErrSchemaGeneration = errors.New("schema generation failed")
	// ErrDuplicateTool is matched by DuplicateToolError.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrToolExecution is matched by ToolExecutionError.
	ErrToolExecution = errors.New("tool execution failed")
	// ErrInvalidArguments is matched by InvalidArgumentsError.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrUnknownTool is returned when the tool name is not in the catalog.
	ErrUnknownTool = errors.New("unknown tool")
)

// SchemaGenerationError is returned when a declaration
// cannot be described as a tool.
type SchemaGenerationError struct {
	Func string
	// Param is empty when the failure is not about a parameter
	Param  string
	Reason string
}

func (e *SchemaGenerationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("schema generation failed for %q: %s", e.Func, e.Reason)
	}
	return fmt.Sprintf("schema generation failed for %q, parameter %q: %s", e.Func, e.Param, e.Reason)
}

// Is implements errors.Is
func (e *SchemaGenerationError) Is(target error) bool {
	return target == ErrSchemaGeneration
}

// DuplicateToolError reports a declaration dropped from a batch
// because an earlier declaration has the same name.
type DuplicateToolError struct {
	Name  string
	Index int
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("duplicate tool %q at index %d", e.Name, e.Index)
}

// Is implements errors.Is
func (e *DuplicateToolError) Is(target error) bool {
	return target == ErrDuplicateTool
}

// ToolExecutionError wraps a failure raised by the tool itself.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tool %q failed", e.Tool)
	}
	return fmt.Sprintf("tool %q failed: %s", e.Tool, e.Err.Error())
}

// Is implements errors.Is
func (e *ToolExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// InvalidArgumentsError is returned when call arguments
// do not satisfy the tool parameters.
type InvalidArgumentsError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %q, parameter %q: %s", e.Tool, e.Param, e.Reason)
}

// Is implements errors.Is
func (e *InvalidArgumentsError) Is(target error) bool {
	return target == ErrInvalidArguments
}
