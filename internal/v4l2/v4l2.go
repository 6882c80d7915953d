// Package v4l2 queries Video4Linux2 capture devices without cgo.
package v4l2

import (
	"bytes"
	"errors"
)

// ErrUnsupported is returned on platforms without V4L2.
var ErrUnsupported = errors.New("v4l2: not supported on this platform")

// Capability is the subset of VIDIOC_QUERYCAP the encoder cares about.
type Capability struct {
	Driver  string
	Card    string
	BusInfo string
	// Capture is set when the device node supports single-planar video capture.
	Capture bool
}

// FourCC converts a 4-byte pixel format code to its string form.
func FourCC(format uint32) string {
	return string([]byte{
		byte(format),
		byte(format >> 8),
		byte(format >> 16),
		byte(format >> 24),
	})
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
