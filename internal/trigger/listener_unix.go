//go:build !windows

package trigger

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const probeTimeout = 200 * time.Millisecond

// lockedListener holds an exclusive flock on the channel's lock file for as
// long as the socket is bound.
type lockedListener struct {
	*net.UnixListener
	lock *os.File
}

func (l *lockedListener) Close() error {
	err := l.UnixListener.Close()
	_ = l.lock.Close()
	return err
}

// listen binds a unix socket at path. Ownership of the name is decided by a
// non-blocking flock on path+".lock", so of several concurrent callers
// exactly one wins. The winner removes a socket file left behind by a dead
// listener; a file still answering dials is treated as in use.
func listen(path string) (net.Listener, error) {
	lock, err := lockChannel(path)
	if err != nil {
		return nil, err
	}
	ln, err := bindUnix(path)
	if errors.Is(err, syscall.EADDRINUSE) {
		if conn, derr := net.DialTimeout("unix", path, probeTimeout); derr == nil {
			_ = conn.Close()
			_ = lock.Close()
			return nil, fmt.Errorf("%s: %w", path, ErrChannelInUse)
		}
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			_ = lock.Close()
			return nil, fmt.Errorf("removing stale socket %s: %w", path, rerr)
		}
		debugLog("trigger: removed stale socket %s", path)
		ln, err = bindUnix(path)
	}
	if err != nil {
		_ = lock.Close()
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%s: %w", path, ErrChannelInUse)
		}
		return nil, fmt.Errorf("error listening on %s: %w", path, err)
	}
	_ = os.Chmod(path, 0600)
	debugLog("trigger: bound unix socket %s", path)
	return &lockedListener{UnixListener: ln, lock: lock}, nil
}

func bindUnix(path string) (*net.UnixListener, error) {
	return net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
}

// lockChannel takes the channel's lock file. EWOULDBLOCK means another
// process or listener owns the name.
func lockChannel(path string) (*os.File, error) {
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock for %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, ErrChannelInUse)
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return f, nil
}

func isBrokenConn(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED)
}
