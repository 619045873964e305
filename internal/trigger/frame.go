package trigger

import (
	"io"

	"github.com/keysender/keysender/common"
)

const toggleByte = 0x01

var toggleFrame = func() [common.FrameSize]byte {
	var f [common.FrameSize]byte
	for i := range f {
		f[i] = toggleByte
	}
	return f
}()

// ToggleFrame returns a copy of the toggle frame.
func ToggleFrame() []byte {
	f := toggleFrame
	return f[:]
}

// IsToggle reports whether frame is a complete toggle frame.
func IsToggle(frame []byte) bool {
	if len(frame) != common.FrameSize {
		return false
	}
	for _, b := range frame {
		if b != toggleByte {
			return false
		}
	}
	return true
}

// WriteToggle writes one toggle frame to w.
func WriteToggle(w io.Writer) error {
	_, err := w.Write(toggleFrame[:])
	return err
}
