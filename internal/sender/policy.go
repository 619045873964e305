package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/keysender/keysender/pkg/keyseq"
)

// Kind names a playback policy variant.
type Kind string

const (
	KindTimedSequence   Kind = "sequence"
	KindRandomizedCycle Kind = "random"
)

// Policy describes how a run emits keys. It is implemented only by
// TimedSequence and RandomizedCycle.
type Policy interface {
	Kind() Kind
	String() string

	// play emits keys until the policy completes or ctx is cancelled.
	// It reports whether the policy completed on its own.
	play(ctx context.Context, em Emitter) bool
}

// TimedSequence plays an explicit sequence of key events with per-event
// delays, once or until stopped.
type TimedSequence struct {
	sequence   keyseq.Sequence
	singlePass bool
}

// NewTimedSequence creates a TimedSequence policy.
func NewTimedSequence(seq keyseq.Sequence, singlePass bool) (TimedSequence, error) {
	if seq.IsZero() {
		return TimedSequence{}, keyseq.ErrEmptySequence
	}
	return TimedSequence{sequence: seq, singlePass: singlePass}, nil
}

func (p TimedSequence) Kind() Kind                { return KindTimedSequence }
func (p TimedSequence) Sequence() keyseq.Sequence { return p.sequence }
func (p TimedSequence) SinglePass() bool          { return p.singlePass }

func (p TimedSequence) String() string {
	mode := "repeat"
	if p.singlePass {
		mode = "once"
	}
	return fmt.Sprintf("sequence(%d events, %s)", p.sequence.Len(), mode)
}

func (p TimedSequence) play(ctx context.Context, em Emitter) bool {
	for {
		for i := 0; i < p.sequence.Len(); i++ {
			ev := p.sequence.At(i)
			if ctx.Err() != nil {
				return false
			}
			if !sleep(ctx, ev.DelayBefore()) {
				return false
			}
			emitEvent(em, ev)
			if !sleep(ctx, ev.DelayAfter()) {
				return false
			}
		}
		if p.singlePass {
			return true
		}
	}
}

// RandomizedCycle presses a fixed set of keys, holds them for a random time
// drawn from KeyUpDown, releases them and waits a random time drawn from
// KeyPress, until stopped.
type RandomizedCycle struct {
	keys      []byte
	keyUpDown keyseq.DelayRange
	keyPress  keyseq.DelayRange
}

// NewRandomizedCycle creates a RandomizedCycle policy. Both ranges must be
// valid, non-zero delay ranges.
func NewRandomizedCycle(keys []byte, keyUpDown, keyPress keyseq.DelayRange) (RandomizedCycle, error) {
	if len(keys) == 0 {
		return RandomizedCycle{}, ErrNoKeys
	}
	for _, k := range keys {
		if k == 0 {
			return RandomizedCycle{}, ErrInvalidKey
		}
	}
	for _, r := range []keyseq.DelayRange{keyUpDown, keyPress} {
		if _, err := keyseq.NewDelayRange(r.Low(), r.High()); err != nil {
			return RandomizedCycle{}, err
		}
	}
	return RandomizedCycle{
		keys:      append([]byte(nil), keys...),
		keyUpDown: keyUpDown,
		keyPress:  keyPress,
	}, nil
}

func (p RandomizedCycle) Kind() Kind                   { return KindRandomizedCycle }
func (p RandomizedCycle) Keys() []byte                 { return append([]byte(nil), p.keys...) }
func (p RandomizedCycle) KeyUpDown() keyseq.DelayRange { return p.keyUpDown }
func (p RandomizedCycle) KeyPress() keyseq.DelayRange  { return p.keyPress }

func (p RandomizedCycle) String() string {
	return fmt.Sprintf("random(%d keys, hold %s, gap %s)", len(p.keys), p.keyUpDown, p.keyPress)
}

func (p RandomizedCycle) play(ctx context.Context, em Emitter) bool {
	for {
		for _, k := range p.keys {
			if ctx.Err() != nil {
				return false
			}
			em.Emit(k, false)
		}
		if !sleep(ctx, p.keyUpDown.Pick()) {
			return false
		}
		for _, k := range p.keys {
			if ctx.Err() != nil {
				return false
			}
			em.Emit(k, true)
		}
		if !sleep(ctx, p.keyPress.Pick()) {
			return false
		}
	}
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed with ctx still live.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return ctx.Err() == nil
	}
}

var (
	_ Policy = TimedSequence{}
	_ Policy = RandomizedCycle{}
)
