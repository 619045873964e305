package logger

import "github.com/hashicorp/go-multierror"

// MultiLogger fans every message out to a fixed set of backends, e.g. the
// console and the Windows Event Log when running as a service.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger returns a MultiLogger over the non-nil loggers, in order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	sinks := make([]Logger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			sinks = append(sinks, l)
		}
	}
	return &MultiLogger{sinks: sinks}
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Info(format, args...) })
}

func (m *MultiLogger) Warning(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Warning(format, args...) })
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	m.each(func(l Logger) { l.Error(format, args...) })
}

// Close closes every backend, even after a failure, and reports all
// failures together.
func (m *MultiLogger) Close() error {
	var result *multierror.Error
	for _, l := range m.sinks {
		if err := l.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.sinks {
		fn(l)
	}
}

var _ Logger = (*MultiLogger)(nil)
