package keyseq

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"
)

// MinRangeLow is the exclusive lower bound of a DelayRange's low end, in ms.
const MinRangeLow = 10

// DelayRange is an inclusive [low, high] millisecond range from which the
// randomized cycle draws its delays.
type DelayRange struct {
	low  int
	high int
}

// Defaults taken over from the original key sender options.
var (
	DefaultKeyUpDown = DelayRange{low: 150, high: 180}
	DefaultKeyPress  = DelayRange{low: 190, high: 220}
)

// NewDelayRange validates low > 10 and high >= low.
func NewDelayRange(low, high int) (DelayRange, error) {
	if low <= MinRangeLow {
		return DelayRange{}, fmt.Errorf("low bound %d: %w", low, ErrDelayRange)
	}
	if high < low {
		return DelayRange{}, fmt.Errorf("high bound %d below low bound %d: %w", high, low, ErrDelayRange)
	}
	return DelayRange{low: low, high: high}, nil
}

func (r DelayRange) Low() int  { return r.low }
func (r DelayRange) High() int { return r.high }

// IsZero reports whether r was never built by NewDelayRange.
func (r DelayRange) IsZero() bool { return r.low == 0 && r.high == 0 }

// Pick draws a delay uniformly from the range, both bounds included.
func (r DelayRange) Pick() time.Duration {
	ms := r.low
	if r.high > r.low {
		ms += rand.IntN(r.high - r.low + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

func (r DelayRange) String() string {
	return fmt.Sprintf("%d..%dms", r.low, r.high)
}

func (r DelayRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.low, r.high})
}

func (r *DelayRange) UnmarshalJSON(b []byte) error {
	var raw [2]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	dr, err := NewDelayRange(raw[0], raw[1])
	if err != nil {
		return err
	}
	*r = dr
	return nil
}
