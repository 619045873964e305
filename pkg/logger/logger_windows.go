//go:build windows

package logger

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// Event IDs for Windows Event Log entries.
const (
	EventIDInfo    uint32 = 1
	EventIDWarning uint32 = 2
	EventIDError   uint32 = 3
)

// EventLogWriter abstracts the methods of eventlog.Log used by EventLogger.
type EventLogWriter interface {
	Info(eid uint32, msg string) error
	Warning(eid uint32, msg string) error
	Error(eid uint32, msg string) error
	Close() error
}

// EventLogger writes log messages to Windows Event Log.
type EventLogger struct {
	log EventLogWriter
}

// NewEventLogger opens the event source and returns a logger writing to it.
// The source is registered on first use with eventlog.InstallAsEventCreate;
// an already registered source is reused.
func NewEventLogger(sourceName string) (*EventLogger, error) {
	_ = eventlog.InstallAsEventCreate(sourceName, eventlog.Info|eventlog.Warning|eventlog.Error)
	elog, err := eventlog.Open(sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return &EventLogger{log: elog}, nil
}

// NewEventLoggerWithWriter creates an EventLogger over an existing writer.
func NewEventLoggerWithWriter(w EventLogWriter) *EventLogger {
	return &EventLogger{log: w}
}

// Logging failures are dropped: the listener keeps running without the event log.
func (e *EventLogger) Info(format string, args ...interface{}) {
	_ = e.log.Info(EventIDInfo, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Warning(format string, args ...interface{}) {
	_ = e.log.Warning(EventIDWarning, fmt.Sprintf(format, args...))
}

func (e *EventLogger) Error(format string, args ...interface{}) {
	_ = e.log.Error(EventIDError, fmt.Sprintf(format, args...))
}

// Close releases the Windows Event Log handle.
func (e *EventLogger) Close() error {
	if e.log != nil {
		return e.log.Close()
	}
	return nil
}

var _ Logger = (*EventLogger)(nil)
