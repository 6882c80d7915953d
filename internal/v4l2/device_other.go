//go:build !linux

package v4l2

// Query reads the capabilities of the device at path.
func Query(string) (Capability, error) {
	return Capability{}, ErrUnsupported
}

// Formats lists the FourCC codes of the capture formats the device offers.
func Formats(string) ([]string, error) {
	return nil, ErrUnsupported
}
