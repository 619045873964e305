//go:build cgo

package keyhook

import (
	"context"
	"sync/atomic"

	hook "github.com/robotn/gohook"

	"github.com/keysender/keysender/pkg/logger"
)

const bufferSize = 64

// running guards the process-wide gohook event loop.
var running atomic.Bool

// GoHook observes key presses system wide through gohook.
type GoHook struct {
	log logger.Logger
}

// NewGoHook creates the system-wide keycode source.
func NewGoHook(log logger.Logger) *GoHook {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &GoHook{log: log}
}

// Start installs the hook and forwards the raw code of every key press.
// The hook is removed when ctx is done. Codes are dropped rather than
// blocking the hook thread when the consumer falls behind.
func (g *GoHook) Start(ctx context.Context) (<-chan int32, error) {
	if !running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	events := hook.Start()
	out := make(chan int32, bufferSize)
	g.log.Info("keyhook: global keyboard hook installed")
	go func() {
		defer running.Store(false)
		defer close(out)
		defer hook.End()
		for {
			select {
			case <-ctx.Done():
				g.log.Info("keyhook: global keyboard hook removed")
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind != hook.KeyHold {
					continue
				}
				select {
				case out <- int32(ev.Rawcode):
				default:
					g.log.Warning("keyhook: consumer saturated, key %d dropped", ev.Rawcode)
				}
			}
		}
	}()
	return out, nil
}

var _ Source = (*GoHook)(nil)
