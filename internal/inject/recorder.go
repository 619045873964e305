package inject

import (
	"sync"
	"time"
)

// Emission is one recorded key event.
type Emission struct {
	Code    byte
	Virtual bool
	KeyUp   bool
	At      time.Time
}

// Recorder is an emitter that records key events instead of injecting them.
type Recorder struct {
	// OnEmit is called after each recorded event. Optional.
	OnEmit func(Emission)

	mu     sync.Mutex
	events []Emission
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(code byte, keyUp bool) {
	r.EmitCode(code, false, keyUp)
}

func (r *Recorder) EmitCode(code byte, virtual, keyUp bool) {
	e := Emission{Code: code, Virtual: virtual, KeyUp: keyUp, At: time.Now()}
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	if r.OnEmit != nil {
		r.OnEmit(e)
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Emission(nil), r.events...)
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
