package keyseq

import (
	"fmt"

	"github.com/keysender/keysender/common"
)

var (
	// ErrInvalidKeyCode is returned for a zero key code.
	ErrInvalidKeyCode = fmt.Errorf("%w: key code must be between 1 and 255", common.ErrConfig)

	// ErrDelayOutOfRange is returned for a delay outside [0, 60000] ms or
	// one that is not a whole number of milliseconds.
	ErrDelayOutOfRange = fmt.Errorf("%w: delay must be a whole number of ms between 0 and %d", common.ErrConfig, MaxDelay.Milliseconds())

	// ErrEmptySequence is returned when a sequence has no events.
	ErrEmptySequence = fmt.Errorf("%w: key sequence is empty", common.ErrConfig)

	// ErrDelayRange is returned for a random delay range whose lower bound is
	// not above 10 ms or whose upper bound is below the lower one.
	ErrDelayRange = fmt.Errorf("%w: delay range must satisfy %d < low <= high", common.ErrConfig, MinRangeLow)
)
