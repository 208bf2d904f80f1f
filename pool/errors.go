package pool

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownServer is matched by UnknownServerError
	ErrUnknownServer = errors.New("unknown server")
	// ErrUnknownTool is matched by UnknownToolError
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidQualifiedName is returned for names not in server.tool form
	ErrInvalidQualifiedName = errors.New("invalid qualified name")
)

// UnknownServerError is returned when the server is not in the pool or not Ready
type UnknownServerError struct {
	Server string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("unknown server %q", e.Server)
}

// Is implements errors.Is
func (e *UnknownServerError) Is(target error) bool {
	return target == ErrUnknownServer
}

// UnknownToolError is returned when the tool is not in the server catalog
type UnknownToolError struct {
	Server string
	Tool   string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q on server %q", e.Tool, e.Server)
}

// Is implements errors.Is
func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}
