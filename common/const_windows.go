//go:build windows

package common

import "strings"

const pipePrefix = `\\.\pipe\`

// ChannelPath returns the Windows named pipe path for the channel name.
// Names already carrying the \\.\pipe\ prefix are used as-is.
func ChannelPath(name string) string {
	if strings.HasPrefix(name, pipePrefix) {
		return name
	}
	return pipePrefix + name
}
