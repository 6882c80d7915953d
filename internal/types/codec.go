package types

// Codec identifies the encoder selected by the positional codec token.
type Codec string

const (
	CodecH264  Codec = "h264"
	CodecMPEG2 Codec = "mpeg2"
	CodecVC1   Codec = "vc1"
	CodecMVC   Codec = "mvc"
	CodecJPEG  Codec = "jpeg"
	CodecH265  Codec = "h265"
	CodecVP8   Codec = "vp8"
)

// CodecInfo describes one entry of the codec catalogue.
type CodecInfo struct {
	Codec       Codec  `json:"codec" yaml:"codec" toml:"codec"`
	Description string `json:"description" yaml:"description" toml:"description"`
	// Encodable is false for identifiers that are recognized but have no encoder.
	Encodable bool `json:"encodable" yaml:"encodable" toml:"encodable"`
	// Capability names the capability flag gating the codec, empty when always available.
	Capability string `json:"capability,omitempty" yaml:"capability,omitempty" toml:"capability,omitempty"`
	// Enabled reports whether the codec can be selected with the current capabilities.
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`
}

var catalogue = []CodecInfo{
	{Codec: CodecH264, Description: "H.264/AVC", Encodable: true},
	{Codec: CodecMPEG2, Description: "MPEG-2 video", Encodable: true},
	{Codec: CodecVC1, Description: "VC-1 (decode only)", Encodable: false},
	{Codec: CodecMVC, Description: "H.264 multiview (MVC)", Encodable: true},
	{Codec: CodecJPEG, Description: "JPEG still image", Encodable: true},
	{Codec: CodecH265, Description: "H.265/HEVC", Encodable: true, Capability: CapabilityHEVC},
	{Codec: CodecVP8, Description: "VP8", Encodable: true, Capability: CapabilityVP8},
}

// Codecs returns the codec catalogue evaluated against caps.
func Codecs(caps Capabilities) []CodecInfo {
	out := make([]CodecInfo, len(catalogue))
	for i, info := range catalogue {
		info.Enabled = info.Encodable && (info.Capability == "" || caps.Has(info.Capability))
		out[i] = info
	}
	return out
}

// LookupCodec finds a codec by its command-line token.
func LookupCodec(token string, caps Capabilities) (CodecInfo, bool) {
	for _, info := range Codecs(caps) {
		if string(info.Codec) == token {
			return info, true
		}
	}
	return CodecInfo{}, false
}

// Image reports whether c is the still-image codec.
func (c Codec) Image() bool {
	return c == CodecJPEG
}
