package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/keysender/keysender/common"
)

// Action is what a schedule event does to the sender.
type Action string

const (
	ActionStart  Action = "start"
	ActionStop   Action = "stop"
	ActionToggle Action = "toggle"
)

var (
	// ErrInvalidAction is returned for an unknown action name.
	ErrInvalidAction = fmt.Errorf("%w: schedule action must be start, stop or toggle", common.ErrConfig)
	// ErrInvalidCron is returned for a cron expression that is malformed or
	// never fires within a year.
	ErrInvalidCron = fmt.Errorf("%w: invalid cron expression", common.ErrConfig)
	// ErrNoTrigger is returned for an entry with neither a cron expression
	// nor a trigger time.
	ErrNoTrigger = fmt.Errorf("%w: schedule entry needs a cron expression or a time", common.ErrConfig)
)

// ParseAction parses an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionStart, ActionStop, ActionToggle:
		return a, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidAction, s)
	}
}

// Entry is one autostart line of the options file.
type Entry struct {
	// Cron is a five-field cron expression. Takes precedence over At.
	Cron string `json:"cron,omitempty"`
	// At is a one-shot trigger time.
	At time.Time `json:"at,omitzero"`
	// Action is start, stop or toggle.
	Action Action `json:"action"`
}

// ScheduleEvent represents a pending autostart action in the scheduler heap.
// It is an in-memory only type; the heap is rebuilt from Entry values on
// listener restart.
type ScheduleEvent struct {
	// ID identifies the event for Remove.
	ID string
	// Action is applied to the sender when TriggerAt is reached.
	Action Action
	// TriggerAt is the wall-clock time when this event fires.
	TriggerAt time.Time
	// CronExpr is the cron expression for recurring events.
	// Empty string means one-shot, no re-scheduling after firing.
	CronExpr string
}
