package keyseq

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func mustEvent(t *testing.T, code byte, keyUp bool, beforeMs, afterMs int) KeyEvent {
	t.Helper()
	ev, err := NewKeyEventMillis(code, false, keyUp, beforeMs, afterMs)
	if err != nil {
		t.Fatalf("NewKeyEventMillis(%d): %v", code, err)
	}
	return ev
}

func TestNewSequence_Empty(t *testing.T) {
	if _, err := NewSequence(); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("NewSequence() error = %v, want ErrEmptySequence", err)
	}
}

func TestNewSequence_RejectsZeroEvent(t *testing.T) {
	ev := mustEvent(t, 30, false, 0, 0)
	if _, err := NewSequence(ev, KeyEvent{}); !errors.Is(err, ErrInvalidKeyCode) {
		t.Fatalf("NewSequence() error = %v, want ErrInvalidKeyCode", err)
	}
}

func TestSequence_KeepsOrderAndIsReadOnly(t *testing.T) {
	a := mustEvent(t, 30, false, 10, 0)
	b := mustEvent(t, 30, true, 0, 20)
	c := mustEvent(t, 31, false, 5, 5)
	input := []KeyEvent{a, b, c}

	seq, err := NewSequence(input...)
	if err != nil {
		t.Fatalf("NewSequence() error = %v", err)
	}
	input[0] = c

	if seq.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", seq.Len())
	}
	if seq.At(0) != a || seq.At(1) != b || seq.At(2) != c {
		t.Errorf("order not preserved: %v", seq.Events())
	}

	events := seq.Events()
	events[1] = c
	if seq.At(1) != b {
		t.Error("mutating Events() result changed the sequence")
	}
	if got, want := seq.CycleDuration(), 40*time.Millisecond; got != want {
		t.Errorf("CycleDuration() = %v, want %v", got, want)
	}
}

func TestSequence_JSON(t *testing.T) {
	seq, err := NewSequence(mustEvent(t, 30, false, 1, 2), mustEvent(t, 30, true, 3, 4))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(seq)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Sequence
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Len() != seq.Len() || got.At(1) != seq.At(1) {
		t.Errorf("decoded %v, want %v", got.Events(), seq.Events())
	}

	var empty Sequence
	if err := json.Unmarshal([]byte(`[]`), &empty); err != nil {
		t.Fatalf("Unmarshal([]) error = %v", err)
	}
	if !empty.IsZero() {
		t.Error("empty JSON array should decode to the zero Sequence")
	}
}
