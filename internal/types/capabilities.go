package types

// Capability names used in settings and in the codec catalogue.
const (
	CapabilityHEVC  = "hevc"
	CapabilityVP8   = "vp8"
	CapabilityV4L2  = "v4l2"
	CapabilityD3D   = "d3d"
	CapabilityVAAPI = "vaapi"
)

// Capabilities are the host/backend features resolved at startup. They decide
// which codecs and options are recognized.
type Capabilities struct {
	HEVC  bool `json:"hevc" yaml:"hevc" toml:"hevc"`
	VP8   bool `json:"vp8" yaml:"vp8" toml:"vp8"`
	V4L2  bool `json:"v4l2" yaml:"v4l2" toml:"v4l2"`
	D3D   bool `json:"d3d" yaml:"d3d" toml:"d3d"`
	VAAPI bool `json:"vaapi" yaml:"vaapi" toml:"vaapi"`
}

// DefaultCapabilities matches a Linux host with a VA-API driver.
func DefaultCapabilities() Capabilities {
	return Capabilities{HEVC: true, VP8: true, VAAPI: true}
}

// Has reports whether the named capability is enabled. Unknown names are disabled.
func (c Capabilities) Has(name string) bool {
	switch name {
	case CapabilityHEVC:
		return c.HEVC
	case CapabilityVP8:
		return c.VP8
	case CapabilityV4L2:
		return c.V4L2
	case CapabilityD3D:
		return c.D3D
	case CapabilityVAAPI:
		return c.VAAPI
	default:
		return false
	}
}
