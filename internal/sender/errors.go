package sender

import (
	"fmt"

	"github.com/keysender/keysender/common"
)

var (
	// ErrNoPolicy is returned by Start when no policy has been configured.
	ErrNoPolicy = fmt.Errorf("%w: no playback policy configured", common.ErrConfig)
	// ErrNoKeys is returned when a randomized cycle has no keys to press.
	ErrNoKeys = fmt.Errorf("%w: randomized cycle needs at least one key", common.ErrConfig)
	// ErrInvalidKey is returned for a zero key code in a randomized cycle.
	ErrInvalidKey = fmt.Errorf("%w: key code 0 is not valid", common.ErrConfig)
	// ErrAlreadyRunning is returned by Start while a run is active.
	ErrAlreadyRunning = fmt.Errorf("%w: sender is already running", common.ErrState)
	// ErrRunning is returned by SetPolicy while a run is active.
	ErrRunning = fmt.Errorf("%w: cannot change policy while running", common.ErrState)
)
