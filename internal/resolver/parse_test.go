package resolver

import (
	"errors"
	"strings"
	"testing"

	"github.com/smazurov/encodenode/internal/options"
	"github.com/smazurov/encodenode/internal/types"
)

func defaultRegistry() *options.Registry {
	return options.NewRegistry(types.DefaultCapabilities())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
		caps types.Capabilities
		kind ErrorKind
	}{
		{"unknown multi-character", "h264 -zz", types.DefaultCapabilities(), ErrUnknownOption},
		{"single-character prefix is not enough", "h264 -width 640", types.DefaultCapabilities(), ErrUnknownOption},
		{"lone hyphen", "h264 -", types.DefaultCapabilities(), ErrUnknownOption},
		{"gated option without capability", "h264 -d3d", types.DefaultCapabilities(), ErrUnknownOption},
		{"trailing single-character flag", "h264 -w", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"trailing idr interval", "h264 -idr_interval", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"trailing path", "h265 -path", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"trailing source", "h264 -i", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"non-numeric width", "h264 -w abc", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"width overflow", "h264 -w 70000", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"bad usage", "h264 -u fastest", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"bad guid", "h265 -p 1234", types.DefaultCapabilities(), ErrInvalidOptionValue},
		{"unknown codec", "h266", types.DefaultCapabilities(), ErrUnsupportedCodec},
		{"decode-only codec", "vc1", types.DefaultCapabilities(), ErrUnsupportedCodec},
		{"hevc without capability", "h265", types.Capabilities{}, ErrUnsupportedCodec},
		{"vp8 without capability", "vp8", types.Capabilities{HEVC: true}, ErrUnsupportedCodec},
		{"second codec", "h264 -w 640 mpeg2", types.DefaultCapabilities(), ErrIncompatibleOptionCombination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.Fields(tt.args), options.NewRegistry(tt.caps))
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.args)
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("Parse(%q) error = %v, want kind %s", tt.args, err, tt.kind)
			}
		})
	}
}

func TestParseErrorIdentifiesToken(t *testing.T) {
	_, err := Parse([]string{"h264", "-w", "abc"}, defaultRegistry())

	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if rerr.Index != 3 {
		t.Errorf("Index = %d, want 3", rerr.Index)
	}
	if len(rerr.Options) != 1 || rerr.Options[0] != "-w" {
		t.Errorf("Options = %v, want [-w]", rerr.Options)
	}
	if rerr.Cause == nil {
		t.Error("Cause is nil, want the value parse error")
	}
	if !strings.Contains(err.Error(), "-w (argument 3)") {
		t.Errorf("Error() = %q, want option and position", err.Error())
	}
}

func TestParseHelp(t *testing.T) {
	_, err := Parse([]string{"h264", "-w", "640", "-?"}, defaultRegistry())
	if !errors.Is(err, ErrHelpRequested) {
		t.Errorf("error = %v, want ErrHelpRequested", err)
	}
}

func TestParseCodecFailsFast(t *testing.T) {
	// The codec is rejected before the later malformed switch is reached.
	_, err := Parse([]string{"vc1", "-w", "abc"}, defaultRegistry())
	if !IsKind(err, ErrUnsupportedCodec) {
		t.Errorf("error = %v, want %s", err, ErrUnsupportedCodec)
	}
}

func TestParseMVC(t *testing.T) {
	d, err := Parse([]string{"mvc", "-i", "left.yuv", "-i", "right.yuv"}, defaultRegistry())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	p := d.Params()
	if p.Codec != types.CodecH264 || !p.MultiView {
		t.Errorf("codec = %s multiview = %v, want h264 with multiview", p.Codec, p.MultiView)
	}
	if len(p.SourceFiles) != 2 {
		t.Errorf("SourceFiles = %v, want 2 entries", p.SourceFiles)
	}
}

func TestParseLastValueWins(t *testing.T) {
	d, err := Parse(strings.Fields("h264 -sw -hw -nv12 -b 100 -b 200 -bref -nobref"), defaultRegistry())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	p := d.Params()
	if !p.UseHWLib {
		t.Error("UseHWLib = false, want true")
	}
	if p.BitRate != 200 {
		t.Errorf("BitRate = %d, want 200", p.BitRate)
	}
	if p.BRefType != types.BRefOff {
		t.Errorf("BRefType = %q, want off", p.BRefType)
	}
}

func TestParseOpenCL(t *testing.T) {
	d, err := Parse([]string{"h264", "-opencl"}, defaultRegistry())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	p := d.Params()
	if p.RotationAngle != 180 || p.RotatePluginPath != types.RotatePluginOpenCL {
		t.Errorf("angle = %d plugin = %q, want 180 with the OpenCL plugin", p.RotationAngle, p.RotatePluginPath)
	}
}
