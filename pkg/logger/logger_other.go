//go:build !windows

package logger

import "errors"

// ErrEventLogUnsupported is returned by NewEventLogger outside Windows.
var ErrEventLogUnsupported = errors.New("event log is only available on Windows")

// NewEventLogger is not available on this platform.
func NewEventLogger(sourceName string) (Logger, error) {
	return nil, ErrEventLogUnsupported
}
