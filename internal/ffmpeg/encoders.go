package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/smazurov/encodenode/internal/types"
)

// Backend is the acceleration family of an encoder.
type Backend string

const (
	BackendQSV      Backend = "qsv"
	BackendVAAPI    Backend = "vaapi"
	BackendSoftware Backend = "software"
)

// Encoder describes the ffmpeg encoder chosen for a codec.
type Encoder struct {
	Name    string  `json:"name"`
	Backend Backend `json:"backend"`
	Muxer   string  `json:"muxer"`
}

// Hardware reports whether the encoder needs a hardware device.
func (e Encoder) Hardware() bool {
	return e.Backend != BackendSoftware
}

type encoderPair struct {
	hw, sw Encoder
}

var encoderTable = map[types.Codec]encoderPair{
	types.CodecH264: {
		hw: Encoder{Name: "h264_qsv", Backend: BackendQSV, Muxer: "h264"},
		sw: Encoder{Name: "libx264", Backend: BackendSoftware, Muxer: "h264"},
	},
	types.CodecH265: {
		hw: Encoder{Name: "hevc_qsv", Backend: BackendQSV, Muxer: "hevc"},
		sw: Encoder{Name: "libx265", Backend: BackendSoftware, Muxer: "hevc"},
	},
	types.CodecMPEG2: {
		hw: Encoder{Name: "mpeg2_qsv", Backend: BackendQSV, Muxer: "mpeg2video"},
		sw: Encoder{Name: "mpeg2video", Backend: BackendSoftware, Muxer: "mpeg2video"},
	},
	types.CodecJPEG: {
		hw: Encoder{Name: "mjpeg_qsv", Backend: BackendQSV, Muxer: "mjpeg"},
		sw: Encoder{Name: "mjpeg", Backend: BackendSoftware, Muxer: "mjpeg"},
	},
	types.CodecVP8: {
		hw: Encoder{Name: "vp8_vaapi", Backend: BackendVAAPI, Muxer: "ivf"},
		sw: Encoder{Name: "libvpx", Backend: BackendSoftware, Muxer: "ivf"},
	},
}

// SelectEncoder returns the encoder for codec on the hardware or software backend.
func SelectEncoder(codec types.Codec, hardware bool) (Encoder, error) {
	pair, ok := encoderTable[codec]
	if !ok {
		return Encoder{}, fmt.Errorf("no encoder for codec %q", codec)
	}
	if hardware {
		return pair.hw, nil
	}
	return pair.sw, nil
}

// HardwareContext returns the global arguments that open device for the
// encoder backend and the filter that uploads software frames to it.
func HardwareContext(backend Backend, device string) (globalArgs []string, upload string) {
	switch backend {
	case BackendQSV:
		return []string{
			"-init_hw_device", "vaapi=va:" + device,
			"-init_hw_device", "qsv=hw@va",
			"-filter_hw_device", "hw",
		}, "hwupload=extra_hw_frames=64,format=qsv"
	case BackendVAAPI:
		return []string{
			"-init_hw_device", "vaapi=va:" + device,
			"-filter_hw_device", "va",
		}, "format=nv12,hwupload"
	default:
		return nil, ""
	}
}

var (
	encoderLineRegex = regexp.MustCompile(`^\s*([VASFXBD\.]{6})\s+(\w+)\s+(.+)$`)
	hwaccelRegex     = regexp.MustCompile(`(?i)(nvenc|qsv|amf|vaapi|videotoolbox|vdpau|cuda|dxva2|d3d11va|opencl|vulkan)`)
)

// AvailableEncoder is one video encoder listed by ffmpeg -encoders.
type AvailableEncoder struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HWAccel     bool   `json:"hwaccel"`
}

// ListEncoders runs binary -encoders and returns the video encoders it reports.
func ListEncoders(ctx context.Context, binary string) ([]AvailableEncoder, error) {
	base := Base(binary)
	out, err := exec.CommandContext(ctx, base[0], append(base[1:], "-encoders")...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute encoders command: %w", err)
	}
	return ParseEncoders(string(out))
}

// ParseEncoders processes the output of ffmpeg -encoders, keeping video encoders.
func ParseEncoders(output string) ([]AvailableEncoder, error) {
	var result []AvailableEncoder

	scanner := bufio.NewScanner(strings.NewReader(output))
	started := false
	for scanner.Scan() {
		line := scanner.Text()

		// Skip the flag legend until the list starts
		if !started {
			if strings.Contains(line, "Encoders:") {
				started = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" || strings.Contains(line, "------") {
			continue
		}

		matches := encoderLineRegex.FindStringSubmatch(line)
		if len(matches) != 4 || matches[1][0] != 'V' {
			continue
		}
		result = append(result, AvailableEncoder{
			Name:        matches[2],
			Description: matches[3],
			HWAccel:     hwaccelRegex.MatchString(matches[2]) || hwaccelRegex.MatchString(matches[3]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading output: %w", err)
	}
	return result, nil
}
