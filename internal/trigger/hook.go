package trigger

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/pkg/logger"
)

const signalBuffer = 8

// Hook is the sending end of the trigger channel. It holds one persistent
// connection to the listener and writes one frame per observed trigger key.
type Hook struct {
	name string
	path string
	log  logger.Logger
	key  atomic.Uint32

	signals chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once

	mu   sync.Mutex
	conn net.Conn

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewHook creates a hook for the named channel and starts its writer.
// It does not connect until the first signal.
func NewHook(name string, key TriggerKey, log logger.Logger) *Hook {
	if log == nil {
		log = logger.NewNopLogger()
	}
	h := &Hook{
		name:    name,
		path:    common.ChannelPath(name),
		log:     log,
		signals: make(chan struct{}, signalBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	h.key.Store(uint32(key))
	go h.writer()
	return h
}

// SetKey replaces the trigger key. The last call wins.
func (h *Hook) SetKey(k TriggerKey) {
	h.key.Store(uint32(k))
}

// Key returns the current trigger key.
func (h *Hook) Key() TriggerKey {
	return TriggerKey(h.key.Load())
}

// Sent returns the number of frames written.
func (h *Hook) Sent() uint64 { return h.sent.Load() }

// Dropped returns the number of signals dropped because the writer was
// saturated.
func (h *Hook) Dropped() uint64 { return h.dropped.Load() }

// Observe checks an observed keycode against the trigger key. On a match it
// hands a signal to the writer and returns true. Observe never blocks, so it
// is safe to call from a keyboard hook callback.
func (h *Hook) Observe(code int32) bool {
	if !h.Key().Matches(code) {
		return false
	}
	select {
	case <-h.stop:
		return false
	default:
	}
	select {
	case h.signals <- struct{}{}:
	default:
		h.dropped.Add(1)
		debugLog("trigger: writer saturated, signal dropped")
	}
	return true
}

// Signal writes one toggle frame synchronously.
func (h *Hook) Signal(ctx context.Context) error {
	select {
	case <-h.stop:
		return ErrHookClosed
	default:
	}
	return h.send(ctx)
}

// Run feeds keycodes from codes into Observe until ctx is done or codes is
// closed.
func (h *Hook) Run(ctx context.Context, codes <-chan int32) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case code, ok := <-codes:
			if !ok {
				return nil
			}
			if h.Observe(code) {
				debugLog("trigger: key %d observed", code)
			}
		}
	}
}

// Close stops the writer and releases the connection.
func (h *Hook) Close() error {
	var err error
	h.once.Do(func() {
		close(h.stop)
		<-h.done
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.conn != nil {
			err = h.conn.Close()
			h.conn = nil
		}
	})
	return err
}

func (h *Hook) writer() {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			return
		case <-h.signals:
			ctx, cancel := context.WithTimeout(context.Background(), common.DefaultDialTimeout)
			if err := h.send(ctx); err != nil {
				h.log.Error("trigger: signal to %s failed: %v", h.name, err)
			}
			cancel()
		}
	}
}

// send writes a frame on the persistent connection, redialing once if the
// connection turns out to be broken.
func (h *Hook) send(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	fresh := false
	if h.conn == nil {
		if err := h.dialLocked(ctx); err != nil {
			return err
		}
		fresh = true
	}
	err := h.writeLocked(ctx)
	if err == nil {
		return nil
	}
	_ = h.conn.Close()
	h.conn = nil
	if fresh {
		return fmt.Errorf("writing frame: %w", err)
	}

	debugLog("trigger: connection broken (%v), redialing", err)
	if err := h.dialLocked(ctx); err != nil {
		return err
	}
	if err := h.writeLocked(ctx); err != nil {
		_ = h.conn.Close()
		h.conn = nil
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func (h *Hook) dialLocked(ctx context.Context) error {
	conn, err := dialFunc(ctx, h.path)
	if err != nil {
		return fmt.Errorf("connecting to trigger channel %s: %w", h.name, err)
	}
	h.conn = conn
	return nil
}

func (h *Hook) writeLocked(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = h.conn.SetWriteDeadline(deadline)
		defer h.conn.SetWriteDeadline(time.Time{})
	}
	if err := WriteToggle(h.conn); err != nil {
		return err
	}
	h.sent.Add(1)
	return nil
}
