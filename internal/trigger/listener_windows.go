//go:build windows

package trigger

import (
	"errors"
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"
)

// pipeSecurityDescriptor restricts pipe access to:
// - SYSTEM: Full control
// - Built-in Administrators: Full control
// - Creator Owner: Full control (the user running the listener)
const pipeSecurityDescriptor = "D:(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;CO)"

// listen creates the named pipe at path. go-winio creates the first pipe
// instance exclusively, so a second listener fails with access denied.
func listen(path string) (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
	}
	l, err := winio.ListenPipe(path, cfg)
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) || errors.Is(err, windows.ERROR_PIPE_BUSY) {
			return nil, fmt.Errorf("%s: %w", path, ErrChannelInUse)
		}
		return nil, fmt.Errorf("error listening on %s: %w", path, err)
	}
	debugLog("trigger: created named pipe %s", path)
	return l, nil
}

func isBrokenConn(err error) bool {
	return errors.Is(err, winio.ErrFileClosed) ||
		errors.Is(err, windows.ERROR_BROKEN_PIPE) ||
		errors.Is(err, windows.ERROR_NO_DATA) ||
		errors.Is(err, windows.ERROR_PIPE_NOT_CONNECTED)
}
