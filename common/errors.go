package common

import "errors"

// Error classes. Every domain sentinel wraps exactly one of them so callers
// can tell a rejected configuration from an operation attempted in the
// wrong state.
var (
	// ErrConfig marks invalid configuration: key codes, delays, ranges,
	// empty sequences, trigger keys, cron expressions.
	ErrConfig = errors.New("invalid configuration")

	// ErrState marks an operation that is not allowed in the current state,
	// such as starting a running sender or binding a channel name in use.
	ErrState = errors.New("invalid state")
)
