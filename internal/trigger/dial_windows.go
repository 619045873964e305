//go:build windows

package trigger

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

// dialFunc is a variable so tests can replace the transport.
var dialFunc = dialImpl

func dialImpl(ctx context.Context, path string) (net.Conn, error) {
	debugLog("trigger: connecting to named pipe %s", path)
	return winio.DialPipeContext(ctx, path)
}
