package trigger

import "fmt"

// TriggerKey is the keycode that toggles the sender when observed.
type TriggerKey uint8

const (
	MinTriggerKey = 1
	MaxTriggerKey = 254
)

// NewTriggerKey validates v against the 1..254 range.
func NewTriggerKey(v int) (TriggerKey, error) {
	if v < MinTriggerKey || v > MaxTriggerKey {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTriggerKey, v)
	}
	return TriggerKey(v), nil
}

// Matches reports whether the observed keycode is this trigger key.
func (k TriggerKey) Matches(code int32) bool {
	return k != 0 && code == int32(k)
}

func (k TriggerKey) String() string {
	return fmt.Sprintf("0x%02X", uint8(k))
}
