// Package logger provides the logging interface shared by the keysender
// components. Backends include console output and, on Windows, the Event Log.
package logger

import (
	"fmt"
	"log"
	"sync"
)

// Logger defines the interface for leveled logging across all components.
type Logger interface {
	// Info logs an informational message (e.g., "Listening on KeySenderPipe").
	Info(format string, args ...interface{})

	// Warning logs a warning message (e.g., "Toggle rejected: no policy").
	Warning(format string, args ...interface{})

	// Error logs an error message (e.g., "Observer panicked").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger. Safe to call multiple times.
	Close() error
}

// StandardLogger wraps the stdlib *log.Logger for console/file output.
type StandardLogger struct {
	logger *log.Logger
}

// NewStandardLogger creates a logger that wraps the given *log.Logger.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l}
}

// Info logs an informational message with [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.logger.Printf("[INFO] "+format, args...)
}

// Warning logs a warning message with [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.logger.Printf("[WARNING] "+format, args...)
}

// Error logs an error message with [ERROR] prefix.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}

// Close is a no-op for StandardLogger.
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger is a logger that discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger implements Logger for tests. It records every call and is safe
// for use from the goroutines of the component under test.
type MockLogger struct {
	mu       sync.Mutex
	infos    []string
	warnings []string
	errors   []string
	closed   bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// InfoCalls returns a copy of the recorded info messages.
func (m *MockLogger) InfoCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.infos...)
}

// WarningCalls returns a copy of the recorded warning messages.
func (m *MockLogger) WarningCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warnings...)
}

// ErrorCalls returns a copy of the recorded error messages.
func (m *MockLogger) ErrorCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errors...)
}

// CloseCalled reports whether Close was called.
func (m *MockLogger) CloseCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Logger = (*MockLogger)(nil)

// ToStdLogger adapts a Logger to the *log.Logger expected by libraries.
// Every line written to the returned logger is logged at info level.
func ToStdLogger(l Logger) *log.Logger {
	return log.New(infoWriter{l}, "", 0)
}

type infoWriter struct{ l Logger }

func (w infoWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.l.Info("%s", msg)
	return len(p), nil
}
