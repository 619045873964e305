package trigger

import (
	"errors"
	"fmt"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/internal/sender"
)

var (
	// ErrChannelInUse is returned by Listen when another live listener owns
	// the channel name.
	ErrChannelInUse = fmt.Errorf("%w: trigger channel already in use", common.ErrState)

	// ErrInvalidTriggerKey is returned for trigger keys outside 1..254.
	ErrInvalidTriggerKey = fmt.Errorf("%w: trigger key must be between %d and %d", common.ErrConfig, MinTriggerKey, MaxTriggerKey)

	// ErrHookClosed is returned by Hook methods after Close.
	ErrHookClosed = errors.New("trigger hook closed")
)

// ListenError is returned by Listener.Serve for errors that end the
// listening session. It records the trigger key and the sender state at the
// time of failure.
type ListenError struct {
	Channel    string
	TriggerKey TriggerKey
	State      sender.State
	Err        error
}

func (e *ListenError) Error() string {
	return fmt.Sprintf("trigger channel %s: listening failed (trigger key %s, sender %s): %v",
		e.Channel, e.TriggerKey, e.State, e.Err)
}

func (e *ListenError) Unwrap() error {
	return e.Err
}
