//go:build windows

package cmd

import "os"

// SIGTERM is never delivered to console processes on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
