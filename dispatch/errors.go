package dispatch

import "github.com/cockroachdb/errors"

var (
	// ErrModel marks a failure of the model capability
	ErrModel = errors.New("model failure")
	// ErrInterrupted marks a turn cancelled by the user
	ErrInterrupted = errors.New("interrupted")
	// ErrMaxRounds is returned when the model keeps requesting tools
	ErrMaxRounds = errors.New("maximum number of tool rounds exceeded")
	// ErrUnsafeDisabled is returned by UnsafeExecute when not enabled
	ErrUnsafeDisabled = errors.New("unsafe execute is disabled")
	// ErrBusy is returned when a turn is already active
	ErrBusy = errors.New("a turn is in progress")
)
