// Package common provides shared constants, environment names and error
// classes used by both ends of the keysender trigger channel.
package common

import (
	"os"
	"time"
)

// DefaultChannelName is the well-known name shared by the listener and the
// hook process.
const DefaultChannelName = "KeySenderPipe"

// FrameSize is the fixed size of a trigger channel frame.
const FrameSize = 16

// DefaultDialTimeout bounds how long the hook side waits to connect.
const DefaultDialTimeout = 2 * time.Second

// DefaultShutdownTimeout bounds the graceful shutdown of the listener process.
const DefaultShutdownTimeout = 5 * time.Second

// ChannelName returns the trigger channel name, honoring KEYSENDER_CHANNEL.
func ChannelName() string {
	if name := os.Getenv(ChannelNameEnv); name != "" {
		return name
	}
	return DefaultChannelName
}
