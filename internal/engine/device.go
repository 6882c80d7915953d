package engine

import (
	"fmt"
	"os"
	"slices"

	"github.com/smazurov/encodenode/internal/types"
	"github.com/smazurov/encodenode/internal/v4l2"
)

// DefaultRenderNode is the DRM render node opened for hardware encoding.
const DefaultRenderNode = "/dev/dri/renderD128"

// statFunc is os.Stat, replaceable in tests.
type statFunc func(name string) (os.FileInfo, error)

// checkCharDevice verifies that path exists and is a character device.
func checkCharDevice(stat statFunc, path string) error {
	if path == "" {
		return fmt.Errorf("no device path")
	}
	info, err := stat(path)
	if err != nil {
		return fmt.Errorf("device %s: %w", path, err)
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return fmt.Errorf("device %s is not a character device", path)
	}
	return nil
}

// captureProbe verifies that a capture device can deliver format.
type captureProbe func(path string, format types.CaptureFormat) error

var fourCC = map[types.CaptureFormat]string{
	types.CaptureUYVY: "UYVY",
	types.CaptureYUY2: "YUYV",
}

// probeV4L2 checks the node is a V4L2 capture device offering format.
func probeV4L2(path string, format types.CaptureFormat) error {
	c, err := v4l2.Query(path)
	if err != nil {
		return err
	}
	if !c.Capture {
		return fmt.Errorf("%s (%s) is not a video capture device", path, c.Card)
	}
	want, ok := fourCC[format]
	if !ok {
		return fmt.Errorf("unknown capture format %q", format)
	}
	formats, err := v4l2.Formats(path)
	if err != nil {
		return err
	}
	if !slices.Contains(formats, want) {
		return fmt.Errorf("%s (%s) does not offer %s, has %v", path, c.Card, want, formats)
	}
	return nil
}
