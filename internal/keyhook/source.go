// Package keyhook provides the streams of observed keycodes that feed the
// hook end of the trigger channel.
package keyhook

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrUnsupported is returned by sources that are not available in this
	// build.
	ErrUnsupported = errors.New("keyhook: global keyboard hook not available in this build")
	// ErrBusy is returned when the process-wide hook is already started.
	ErrBusy = errors.New("keyhook: global keyboard hook already running")
)

// Source produces observed keycodes until ctx is done. The returned channel
// is closed when the source stops.
type Source interface {
	Start(ctx context.Context) (<-chan int32, error)
}

// ChanSource forwards keycodes from an existing channel.
type ChanSource struct {
	C <-chan int32
}

func (s ChanSource) Start(ctx context.Context) (<-chan int32, error) {
	out := make(chan int32)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case code, ok := <-s.C:
				if !ok {
					return
				}
				select {
				case out <- code:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// ReaderSource reads one keycode per line from R. Decimal and 0x-prefixed
// hex values are accepted; blank lines and lines starting with # are
// skipped.
type ReaderSource struct {
	R io.Reader
	// OnError is called for lines that are not keycodes. Optional.
	OnError func(line string, err error)
}

func (s ReaderSource) Start(ctx context.Context) (<-chan int32, error) {
	out := make(chan int32)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(s.R)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			code, err := ParseKeycode(line)
			if err != nil {
				if s.OnError != nil {
					s.OnError(line, err)
				}
				continue
			}
			select {
			case out <- code:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ParseKeycode parses a decimal or 0x-prefixed hex keycode.
func ParseKeycode(s string) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

var (
	_ Source = ChanSource{}
	_ Source = ReaderSource{}
)
