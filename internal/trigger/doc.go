// Package trigger implements the local channel that carries toggle signals
// from the hook process to the listener process.
//
// The wire format is a single fixed frame of common.FrameSize bytes, all set
// to 0x01. There is no version field, no length prefix and no reply. The
// listener accepts one connection at a time and toggles the sender once per
// frame; frames with any other content are ignored.
//
// On unix the channel is a unix domain socket, on Windows a named pipe.
package trigger
