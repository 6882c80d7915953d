//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"
)

// ioctl request codes. Neither struct carries pointers, so the codes are the
// same on every Linux architecture.
const (
	vidiocQuerycap = 0x80685600
	vidiocEnumFmt  = 0xc0405602

	capVideoCapture = 0x00000001
	capDeviceCaps   = 0x80000000

	bufTypeVideoCapture = 1
)

// capability mirrors struct v4l2_capability (104 bytes).
type capability struct {
	driver       [16]byte
	card         [32]byte
	busInfo      [32]byte
	version      uint32
	capabilities uint32
	deviceCaps   uint32
	reserved     [3]uint32
}

// fmtdesc mirrors struct v4l2_fmtdesc (64 bytes).
type fmtdesc struct {
	index       uint32
	typ         uint32
	flags       uint32
	description [32]byte
	pixelformat uint32
	mbusCode    uint32
	reserved    [3]uint32
}

var (
	_ [104]byte = [unsafe.Sizeof(capability{})]byte{}
	_ [64]byte  = [unsafe.Sizeof(fmtdesc{})]byte{}
)

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func openDevice(path string) (int, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", path, err)
	}
	return fd, nil
}

// Query reads the capabilities of the device at path.
func Query(path string) (Capability, error) {
	fd, err := openDevice(path)
	if err != nil {
		return Capability{}, err
	}
	defer syscall.Close(fd)

	var c capability
	if err := ioctl(fd, vidiocQuerycap, unsafe.Pointer(&c)); err != nil {
		return Capability{}, fmt.Errorf("query capabilities of %s: %w", path, err)
	}

	// Device caps describe this node; capabilities cover the whole device.
	caps := c.capabilities
	if caps&capDeviceCaps != 0 {
		caps = c.deviceCaps
	}
	return Capability{
		Driver:  cstr(c.driver[:]),
		Card:    cstr(c.card[:]),
		BusInfo: cstr(c.busInfo[:]),
		Capture: caps&capVideoCapture != 0,
	}, nil
}

// Formats lists the FourCC codes of the capture formats the device offers.
func Formats(path string) ([]string, error) {
	fd, err := openDevice(path)
	if err != nil {
		return nil, err
	}
	defer syscall.Close(fd)

	var formats []string
	for i := uint32(0); ; i++ {
		desc := fmtdesc{index: i, typ: bufTypeVideoCapture}
		if err := ioctl(fd, vidiocEnumFmt, unsafe.Pointer(&desc)); err != nil {
			if errors.Is(err, syscall.EINVAL) {
				break // end of enumeration
			}
			return nil, fmt.Errorf("enumerate format %d of %s: %w", i, path, err)
		}
		formats = append(formats, FourCC(desc.pixelformat))
	}
	return formats, nil
}
