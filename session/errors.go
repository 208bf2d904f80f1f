package session

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrSessionNotReady is matched by SessionNotReadyError
	ErrSessionNotReady = errors.New("session is not ready")
	// ErrProtocol marks a broken connection or malformed framing,
	// the session is moved to Failed
	ErrProtocol = errors.New("protocol failure")
)

// SessionNotReadyError is returned by calls on a session that is not Ready
type SessionNotReadyError struct {
	Server string
	Status Status
}

func (e *SessionNotReadyError) Error() string {
	return fmt.Sprintf("session %q is not ready: %s", e.Server, e.Status)
}

// Is implements errors.Is
func (e *SessionNotReadyError) Is(target error) bool {
	return target == ErrSessionNotReady
}
