//go:build !windows

package common

import (
	"os"
	"path/filepath"
)

// ChannelPath returns the unix socket path for the channel name.
// Absolute paths are used as-is, other names live in the temp directory.
func ChannelPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(os.TempDir(), name+".sock")
}
