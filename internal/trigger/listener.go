package trigger

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/keysender/keysender/common"
	"github.com/keysender/keysender/internal/sender"
	"github.com/keysender/keysender/pkg/logger"
)

// Toggler is the listener side's view of the sender.
type Toggler interface {
	Toggle() (sender.State, error)
	State() sender.State
}

// Listener is the listening end of the trigger channel.
type Listener struct {
	name    string
	ln      net.Listener
	toggler Toggler
	log     logger.Logger
	key     atomic.Uint32

	mu     sync.Mutex
	conn   net.Conn
	closed bool

	toggles atomic.Uint64
	ignored atomic.Uint64
}

// Listen binds the channel name exclusively. If another live listener owns
// the name it fails with ErrChannelInUse.
func Listen(name string, t Toggler, log logger.Logger) (*Listener, error) {
	ln, err := listen(common.ChannelPath(name))
	if err != nil {
		return nil, err
	}
	return newListener(name, ln, t, log), nil
}

func newListener(name string, ln net.Listener, t Toggler, log logger.Logger) *Listener {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Listener{
		name:    name,
		ln:      ln,
		toggler: t,
		log:     log,
	}
}

// SetTriggerKey records the trigger key the hook side is configured with.
// It is only used to annotate a ListenError.
func (l *Listener) SetTriggerKey(k TriggerKey) {
	l.key.Store(uint32(k))
}

// Name returns the channel name the listener is bound to.
func (l *Listener) Name() string {
	return l.name
}

// Toggles returns the number of toggle frames handled.
func (l *Listener) Toggles() uint64 {
	return l.toggles.Load()
}

// Ignored returns the number of frames that were not toggle frames.
func (l *Listener) Ignored() uint64 {
	return l.ignored.Load()
}

// Serve accepts one connection at a time and toggles the sender for every
// toggle frame read from it. A client disconnecting is not an error; the
// listener goes back to accepting. Serve returns nil once ctx is done or
// the listener is closed, and a *ListenError for any other failure.
func (l *Listener) Serve(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-stop:
		}
	}()

	l.log.Info("trigger: listening on %s", l.name)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.isClosed() || ctx.Err() != nil {
				return nil
			}
			if isTransient(err) {
				debugLog("trigger: transient accept error: %v", err)
				continue
			}
			return l.wrap(err)
		}
		if !l.setConn(conn) {
			_ = conn.Close()
			return nil
		}
		debugLog("trigger: client connected")
		err = l.handle(conn)
		l.setConn(nil)
		_ = conn.Close()
		if l.isClosed() || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if isTransient(err) {
				debugLog("trigger: client gone: %v", err)
				continue
			}
			return l.wrap(err)
		}
		debugLog("trigger: client disconnected")
	}
}

// handle reads frames until the client disconnects. A clean disconnect
// returns nil.
func (l *Listener) handle(conn net.Conn) error {
	buf := make([]byte, common.FrameSize)
	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !IsToggle(buf) {
			l.ignored.Add(1)
			debugLog("trigger: ignoring frame % x", buf)
			continue
		}
		l.toggles.Add(1)
		if l.toggler == nil {
			l.log.Warning("trigger: toggle frame received but nothing to toggle")
			continue
		}
		state, err := l.toggler.Toggle()
		if err != nil {
			l.log.Warning("trigger: toggle failed: %v", err)
			continue
		}
		l.log.Info("trigger: toggled, sender %s", state)
	}
}

func (l *Listener) wrap(err error) error {
	var state sender.State
	if l.toggler != nil {
		state = l.toggler.State()
	}
	return &ListenError{
		Channel:    l.name,
		TriggerKey: TriggerKey(l.key.Load()),
		State:      state,
		Err:        err,
	}
}

func (l *Listener) setConn(c net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed && c != nil {
		return false
	}
	l.conn = c
	return true
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close stops accepting, drops the current client and releases the
// channel name. It is safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	err := l.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// isTransient reports whether err means the client went away.
func isTransient(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return isBrokenConn(err)
}
