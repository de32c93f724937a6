package scripthost

import "errors"

// Sentinel errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("scripthost: state is closed")

	// ErrTimeout is returned when a plugin invocation exceeds its deadline.
	ErrTimeout = errors.New("scripthost: execution timeout")

	// ErrMissingEntryPoint is returned when a plugin source does not define
	// both info() and process() as callable globals.
	ErrMissingEntryPoint = errors.New("scripthost: plugin does not define both info() and process()")

	// ErrBadReturn is returned when a host call returns a value of the
	// wrong Lua type.
	ErrBadReturn = errors.New("scripthost: unexpected return type from plugin")
)
