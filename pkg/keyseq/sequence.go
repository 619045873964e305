package keyseq

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sequence is a non-empty ordered list of key events. Insertion order is
// playback order.
type Sequence struct {
	events []KeyEvent
}

// NewSequence copies events into a new Sequence.
func NewSequence(events ...KeyEvent) (Sequence, error) {
	if len(events) == 0 {
		return Sequence{}, ErrEmptySequence
	}
	for i, ev := range events {
		if ev.IsZero() {
			return Sequence{}, fmt.Errorf("event %d: %w", i, ErrInvalidKeyCode)
		}
	}
	cp := make([]KeyEvent, len(events))
	copy(cp, events)
	return Sequence{events: cp}, nil
}

// Len returns the number of events.
func (s Sequence) Len() int { return len(s.events) }

// IsZero reports whether s was never built by NewSequence.
func (s Sequence) IsZero() bool { return len(s.events) == 0 }

// At returns the i-th event.
func (s Sequence) At(i int) KeyEvent { return s.events[i] }

// Events returns a copy of the events.
func (s Sequence) Events() []KeyEvent {
	cp := make([]KeyEvent, len(s.events))
	copy(cp, s.events)
	return cp
}

// CycleDuration is the sum of all configured delays of one pass.
func (s Sequence) CycleDuration() time.Duration {
	var d time.Duration
	for _, ev := range s.events {
		d += ev.delayBefore + ev.delayAfter
	}
	return d
}

func (s Sequence) MarshalJSON() ([]byte, error) {
	if s.events == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.events)
}

func (s *Sequence) UnmarshalJSON(b []byte) error {
	var events []KeyEvent
	if err := json.Unmarshal(b, &events); err != nil {
		return err
	}
	if len(events) == 0 {
		// an absent sequence is allowed in the options file, playing it is not
		*s = Sequence{}
		return nil
	}
	seq, err := NewSequence(events...)
	if err != nil {
		return err
	}
	*s = seq
	return nil
}
