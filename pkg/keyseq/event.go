package keyseq

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxDelay is the longest delay allowed before or after a key event.
const MaxDelay = 60 * time.Second

// KeyEvent is one timed key press or release.
type KeyEvent struct {
	code        byte
	virtual     bool
	keyUp       bool
	delayBefore time.Duration
	delayAfter  time.Duration
}

// NewKeyEvent validates and builds a KeyEvent. Delays must be whole
// milliseconds, the unit of the JSON form.
func NewKeyEvent(code byte, virtual, keyUp bool, before, after time.Duration) (KeyEvent, error) {
	if code == 0 {
		return KeyEvent{}, ErrInvalidKeyCode
	}
	if err := checkDelay("delay before", before); err != nil {
		return KeyEvent{}, err
	}
	if err := checkDelay("delay after", after); err != nil {
		return KeyEvent{}, err
	}
	return KeyEvent{
		code:        code,
		virtual:     virtual,
		keyUp:       keyUp,
		delayBefore: before,
		delayAfter:  after,
	}, nil
}

// NewKeyEventMillis is NewKeyEvent with delays given in milliseconds.
func NewKeyEventMillis(code byte, virtual, keyUp bool, beforeMs, afterMs int) (KeyEvent, error) {
	return NewKeyEvent(code, virtual, keyUp,
		time.Duration(beforeMs)*time.Millisecond,
		time.Duration(afterMs)*time.Millisecond)
}

func checkDelay(name string, d time.Duration) error {
	if d < 0 || d > MaxDelay || d%time.Millisecond != 0 {
		return fmt.Errorf("%s %v: %w", name, d, ErrDelayOutOfRange)
	}
	return nil
}

func (e KeyEvent) Code() byte                 { return e.code }
func (e KeyEvent) IsVirtual() bool            { return e.virtual }
func (e KeyEvent) IsKeyUp() bool              { return e.keyUp }
func (e KeyEvent) DelayBefore() time.Duration { return e.delayBefore }
func (e KeyEvent) DelayAfter() time.Duration  { return e.delayAfter }

// IsZero reports whether e is the zero value, which is never a valid event.
func (e KeyEvent) IsZero() bool {
	return e.code == 0
}

func (e KeyEvent) String() string {
	dir := "down"
	if e.keyUp {
		dir = "up"
	}
	kind := "scan"
	if e.virtual {
		kind = "vk"
	}
	return fmt.Sprintf("%s:%d %s (+%v/+%v)", kind, e.code, dir, e.delayBefore, e.delayAfter)
}

type keyEventJSON struct {
	Code          int  `json:"code"`
	Virtual       bool `json:"virtual,omitempty"`
	KeyUp         bool `json:"key_up,omitempty"`
	DelayBeforeMs int  `json:"delay_before_ms"`
	DelayAfterMs  int  `json:"delay_after_ms"`
}

func (e KeyEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyEventJSON{
		Code:          int(e.code),
		Virtual:       e.virtual,
		KeyUp:         e.keyUp,
		DelayBeforeMs: int(e.delayBefore.Milliseconds()),
		DelayAfterMs:  int(e.delayAfter.Milliseconds()),
	})
}

func (e *KeyEvent) UnmarshalJSON(b []byte) error {
	var raw keyEventJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Code < 1 || raw.Code > 255 {
		return fmt.Errorf("code %d: %w", raw.Code, ErrInvalidKeyCode)
	}
	ev, err := NewKeyEventMillis(byte(raw.Code), raw.Virtual, raw.KeyUp, raw.DelayBeforeMs, raw.DelayAfterMs)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}
