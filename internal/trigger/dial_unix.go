//go:build !windows

package trigger

import (
	"context"
	"net"
)

// dialFunc is a variable so tests can replace the transport.
var dialFunc = dialImpl

func dialImpl(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	debugLog("trigger: connecting to unix socket %s", path)
	return d.DialContext(ctx, "unix", path)
}
