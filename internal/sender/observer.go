package sender

import (
	"time"

	"github.com/google/uuid"
)

// Reason explains a state change.
type Reason string

const (
	// ReasonRequested marks a change caused by Start, Stop or Toggle.
	ReasonRequested Reason = "requested"
	// ReasonCompleted marks the end of a single-pass run.
	ReasonCompleted Reason = "completed"
)

// Notification describes a started or stopped run. Policy is the policy the
// run was started with; policies are immutable so observers cannot change
// the running configuration through it.
type Notification struct {
	RunID  uuid.UUID
	State  State
	Reason Reason
	Policy Policy
	At     time.Time
}

// Observer receives run notifications. Methods are called from the dispatch
// queue worker, one at a time, in the order the notifications were raised.
type Observer interface {
	OnStarted(Notification)
	OnStopped(Notification)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Started func(Notification)
	Stopped func(Notification)
}

func (o ObserverFuncs) OnStarted(n Notification) {
	if o.Started != nil {
		o.Started(n)
	}
}

func (o ObserverFuncs) OnStopped(n Notification) {
	if o.Stopped != nil {
		o.Stopped(n)
	}
}

var _ Observer = ObserverFuncs{}
