package resolver

import (
	"reflect"
	"strings"
	"testing"

	"github.com/smazurov/encodenode/internal/options"
	"github.com/smazurov/encodenode/internal/types"
)

const base = "-i in.yuv -o out.bin -w 640 -h 480"

func resolve(t *testing.T, args string) (Config, error) {
	t.Helper()
	return Resolve(strings.Fields(args), defaultRegistry())
}

func mustResolve(t *testing.T, args string) Config {
	t.Helper()
	cfg, err := resolve(t, args)
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", args, err)
	}
	return cfg
}

func TestFinalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		args string
		kind ErrorKind
	}{
		{"no source", "h264 -o out -w 640 -h 480", ErrMissingMandatoryParameter},
		{"no destination", "h264 -i in -w 640 -h 480", ErrMissingMandatoryParameter},
		{"no width", "h264 -i in -o out -h 480", ErrMissingMandatoryParameter},
		{"zero height", "h264 -i in -o out -w 640 -h 0", ErrMissingMandatoryParameter},
		{"no codec", base, ErrMissingMandatoryParameter},
		{"look-ahead in software", "h264 -la -sw " + base, ErrIncompatibleOptionCombination},
		{"look-ahead depth in software", "h264 -lad 20 -sw " + base, ErrIncompatibleOptionCombination},
		{"max slice size in software", "h264 -mss 1000 -sw " + base, ErrIncompatibleOptionCombination},
		{"max slice size with slice count", "h264 -mss 1000 -num_slice 4 " + base, ErrIncompatibleOptionCombination},
		{"look-ahead with mpeg2", "mpeg2 -la " + base, ErrIncompatibleOptionCombination},
		{"max slice size with h265", "h265 -mss 1000 " + base, ErrIncompatibleOptionCombination},
		{"look-ahead depth too small", "h264 -lad 5 " + base, ErrInvalidOptionValue},
		{"look-ahead depth too large", "h264 -lad 101 " + base, ErrInvalidOptionValue},
		{"look-ahead depth 1 without mss", "h264 -lad 1 " + base, ErrInvalidOptionValue},
		{"angle 90", "h264 -angle 90 " + base, ErrInvalidOptionValue},
		{"rotation interlaced", "h264 -angle 180 -tff " + base, ErrIncompatibleOptionCombination},
		{"rotation resize", "h264 -opencl -dstw 320 " + base, ErrIncompatibleOptionCombination},
		{"rotation look-ahead", "h264 -angle 180 -la " + base, ErrIncompatibleOptionCombination},
		{"rotation multiview", "mvc -angle 180 -i second " + base, ErrIncompatibleOptionCombination},
		{"jpeg without quality", "jpeg " + base, ErrMissingMandatoryParameter},
		{"jpeg quality too high", "jpeg -q 101 " + base, ErrInvalidOptionValue},
		{"quality with h264", "h264 -q 50 " + base, ErrIncompatibleOptionCombination},
		{"jpeg with bitrate", "jpeg -q 50 -b 1000 " + base, ErrIncompatibleOptionCombination},
		{"jpeg with usage", "jpeg -q 50 -u speed " + base, ErrIncompatibleOptionCombination},
		{"yuy2 with h264", "h264 -yuy2 " + base, ErrIncompatibleOptionCombination},
		{"viewoutput without mvc", "h264 -viewoutput " + base, ErrIncompatibleOptionCombination},
		{"mvc with one source", "mvc " + base, ErrIncompatibleOptionCombination},
		{"mvc with three sources", "mvc -i b -i c " + base, ErrIncompatibleOptionCombination},
		{"viewoutput with four destinations", "mvc -viewoutput -i b -o 2 -o 3 -o 4 " + base, ErrIncompatibleOptionCombination},
		{"async too deep", "h264 -async 21 " + base, ErrInvalidOptionValue},
		{"quantizer too large", "h264 -cqp -qpi 52 " + base, ErrInvalidOptionValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(t, tt.args)
			if err == nil {
				t.Fatalf("Resolve(%q) expected error", tt.args)
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("Resolve(%q) error = %v, want kind %s", tt.args, err, tt.kind)
			}
		})
	}
}

func TestFinalizeDefaults(t *testing.T) {
	p := mustResolve(t, "h264 "+base).Params()

	if p.DstWidth != 640 || p.DstHeight != 480 {
		t.Errorf("destination = %dx%d, want 640x480", p.DstWidth, p.DstHeight)
	}
	if p.TargetUsage != types.TargetUsageBalanced {
		t.Errorf("TargetUsage = %q, want balanced", p.TargetUsage)
	}
	if p.FrameRate != 30 {
		t.Errorf("FrameRate = %v, want 30", p.FrameRate)
	}
	if p.ColorFormat != types.ColorYV12 {
		t.Errorf("ColorFormat = %q, want yv12", p.ColorFormat)
	}
	if p.PicStruct != types.PicProgressive {
		t.Errorf("PicStruct = %q, want progressive", p.PicStruct)
	}
	if p.AsyncDepth != 4 {
		t.Errorf("AsyncDepth = %d, want 4", p.AsyncDepth)
	}
	if p.RateControl != types.RateControlCBR {
		t.Errorf("RateControl = %q, want cbr", p.RateControl)
	}
	if p.NumViews != 1 {
		t.Errorf("NumViews = %d, want 1", p.NumViews)
	}
	if p.BitRate != 2227 {
		t.Errorf("BitRate = %d, want 2227", p.BitRate)
	}
	if p.MemType != types.MemSystem {
		t.Errorf("MemType = %q, want system", p.MemType)
	}
}

func TestAsyncDepthZeroMeansDefault(t *testing.T) {
	p := mustResolve(t, "h264 -async 0 "+base).Params()
	if p.AsyncDepth != 4 {
		t.Errorf("AsyncDepth = %d, want 4 for -async 0", p.AsyncDepth)
	}
}

func TestFinalizeKeepsExplicitValues(t *testing.T) {
	p := mustResolve(t, "h264 -b 800 -u quality -f 60 -nv12 -bff -async 10 -dstw 320 -dsth 240 "+base).Params()

	if p.BitRate != 800 {
		t.Errorf("BitRate = %d, want 800", p.BitRate)
	}
	if p.TargetUsage != types.TargetUsageQuality {
		t.Errorf("TargetUsage = %q, want quality", p.TargetUsage)
	}
	if p.FrameRate != 60 || p.ColorFormat != types.ColorNV12 || p.PicStruct != types.PicFieldBFF {
		t.Errorf("format = %v %q %q, want 60 nv12 bff", p.FrameRate, p.ColorFormat, p.PicStruct)
	}
	if p.AsyncDepth != 10 {
		t.Errorf("AsyncDepth = %d, want 10", p.AsyncDepth)
	}
	if p.DstWidth != 320 || p.DstHeight != 240 {
		t.Errorf("destination = %dx%d, want 320x240", p.DstWidth, p.DstHeight)
	}
}

func TestFinalizeNonPositiveFrameRate(t *testing.T) {
	p := mustResolve(t, "h264 -f -5 "+base).Params()
	if p.FrameRate != 30 {
		t.Errorf("FrameRate = %v, want 30", p.FrameRate)
	}
}

func TestMaxSliceSizeForcesAsyncDepth(t *testing.T) {
	for _, async := range []string{"1", "8", "50"} {
		t.Run(async, func(t *testing.T) {
			p := mustResolve(t, "-async "+async+" -mss 1000 -hw h264 -w 640 -h 480 -i a -o b").Params()
			if p.AsyncDepth != 1 {
				t.Errorf("AsyncDepth = %d, want 1", p.AsyncDepth)
			}
		})
	}
}

func TestLookAheadDepthOneWithMaxSliceSize(t *testing.T) {
	p := mustResolve(t, "h264 -lad 1 -mss 1000 "+base).Params()
	if p.RateControl != types.RateControlLookAhead || p.LADepth != 1 {
		t.Errorf("rate control = %q depth = %d, want la with depth 1", p.RateControl, p.LADepth)
	}
}

func TestRegionEncodeDemotion(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    bool
		adjusts int
	}{
		{"h265 same geometry", "h265 -re " + base, true, 0},
		{"h265 resized", "h265 -re -dstw 320 " + base, false, 1},
		{"h265 rotated", "h265 -re -angle 180 " + base, false, 1},
		{"h264", "h264 -re " + base, false, 1},
		{"not requested", "h265 " + base, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustResolve(t, tt.args)
			if cfg.RegionEncode() != tt.want {
				t.Errorf("RegionEncode() = %v, want %v", cfg.RegionEncode(), tt.want)
			}
			if got := len(cfg.Adjustments()); got != tt.adjusts {
				t.Errorf("len(Adjustments()) = %d, want %d", got, tt.adjusts)
			}
		})
	}
}

func TestRepeatedSourceWithoutMultiview(t *testing.T) {
	p := mustResolve(t, "h264 -i first.yuv -i second.yuv -o out -w 640 -h 480").Params()
	if p.NumViews != 1 {
		t.Errorf("NumViews = %d, want 1", p.NumViews)
	}
	if !reflect.DeepEqual(p.SourceFiles, []string{"second.yuv"}) {
		t.Errorf("SourceFiles = %v, want [second.yuv]", p.SourceFiles)
	}
}

func TestMultiviewViews(t *testing.T) {
	cfg := mustResolve(t, "mvc -viewoutput -i left -i right -o a -o b -w 640 -h 480")
	p := cfg.Params()
	if !cfg.MultiView() || cfg.NumViews() != 2 {
		t.Errorf("MultiView() = %v NumViews() = %d, want true 2", cfg.MultiView(), cfg.NumViews())
	}
	if !reflect.DeepEqual(p.SourceFiles, []string{"left", "right"}) {
		t.Errorf("SourceFiles = %v", p.SourceFiles)
	}
	if !p.ViewOutput {
		t.Error("ViewOutput = false, want true")
	}
}

func TestViewOutputTokenOrder(t *testing.T) {
	// -viewoutput before the codec token is accepted.
	cfg := mustResolve(t, "-viewoutput mvc -i left -i right -o a -w 640 -h 480")
	if !cfg.Params().ViewOutput {
		t.Error("ViewOutput = false, want true")
	}
}

func TestCaptureInput(t *testing.T) {
	reg := options.NewRegistry(types.Capabilities{V4L2: true})
	capBase := "h264 -i::v4l2 -o out -w 640 -h 480"

	tests := []struct {
		name    string
		args    string
		wantErr ErrorKind
	}{
		{"no device", capBase + " -uyvy", ErrMissingMandatoryParameter},
		{"no format", capBase + " -d /dev/video0", ErrMissingMandatoryParameter},
		{"port without mode", capBase + " -d /dev/video0 -uyvy -p 0", ErrIncompatibleOptionCombination},
		{"mode without port", capBase + " -d /dev/video0 -uyvy -m video", ErrIncompatibleOptionCombination},
		{"port without mode or format", capBase + " -d /dev/video0 -p 0", ErrMissingMandatoryParameter},
		{"unknown mode", capBase + " -d /dev/video0 -uyvy -p 0 -m fast", ErrIncompatibleOptionCombination},
		{"valid uyvy", capBase + " -d /dev/video0 -uyvy", ""},
		{"valid yuy2 with h264", capBase + " -d /dev/video0 -yuy2 -p 1 -m PREVIEW", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(strings.Fields(tt.args), reg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if !cfg.CaptureEnabled() || cfg.NumViews() != 1 {
					t.Errorf("CaptureEnabled() = %v NumViews() = %d", cfg.CaptureEnabled(), cfg.NumViews())
				}
				return
			}
			if !IsKind(err, tt.wantErr) {
				t.Errorf("Resolve() error = %v, want kind %s", err, tt.wantErr)
			}
		})
	}
}

var validArgs = []string{
	"h264 " + base,
	"h264 -mss 1500 -lad 1 " + base,
	"h264 -num_slice 4 -la -lad 40 -u speed " + base,
	"h264 -cqp -qpi 20 -qpp 24 -qpb 28 -g 30 -r 3 -x 2 -bref -idr_interval 2 " + base,
	"h264 -i first -i second -dstw 1280 " + base,
	"h264 -angle 180 " + base,
	"h265 -re -u quality " + base,
	"h265 -re -dsth 240 " + base,
	"mpeg2 -sw -f 25 -n 100 " + base,
	"mvc -viewoutput -i right -o b2 -o b3 " + base,
	"jpeg -q 90 -yuy2 " + base,
	"vp8 -b 1200 " + base,
}

func TestFinalizeIdempotent(t *testing.T) {
	for _, args := range validArgs {
		t.Run(args, func(t *testing.T) {
			first := mustResolve(t, args)
			second, err := Finalize(first.Draft())
			if err != nil {
				t.Fatalf("second Finalize() error = %v", err)
			}
			if !reflect.DeepEqual(first.Params(), second.Params()) {
				t.Errorf("second Finalize() changed parameters\nfirst:  %+v\nsecond: %+v", first.Params(), second.Params())
			}
		})
	}
}

func TestResolvedInvariants(t *testing.T) {
	for _, args := range validArgs {
		t.Run(args, func(t *testing.T) {
			d, err := Parse(strings.Fields(args), defaultRegistry())
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			in := d.Params()
			cfg, err := Finalize(d)
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			p := cfg.Params()

			if p.MaxSliceSize != 0 && p.NumSlice != 0 {
				t.Error("both max slice size and slice count are set")
			}
			if p.Codec.Image() {
				if p.BitRate != 0 || p.TargetUsage != "" {
					t.Errorf("jpeg bitrate = %d usage = %q, want unset", p.BitRate, p.TargetUsage)
				}
			} else if p.Quality != 0 {
				t.Errorf("quality = %d for %s, want 0", p.Quality, p.Codec)
			}
			if in.DstWidth == 0 && p.DstWidth != p.Width {
				t.Errorf("DstWidth = %d, want %d", p.DstWidth, p.Width)
			}
			if in.DstHeight == 0 && p.DstHeight != p.Height {
				t.Errorf("DstHeight = %d, want %d", p.DstHeight, p.Height)
			}
			if p.AsyncDepth < 1 || p.AsyncDepth > 20 {
				t.Errorf("AsyncDepth = %d, want [1,20]", p.AsyncDepth)
			}
			if p.RegionEncode && (p.Codec != types.CodecH265 || p.Resized() || p.RotationAngle != 0) {
				t.Error("region encode kept with incompatible settings")
			}
		})
	}
}

func TestFinalizeDoesNotModifyDraft(t *testing.T) {
	d, err := Parse(strings.Fields("h264 -i a -i b "+base), defaultRegistry())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	before := d.Params()
	if _, err := Finalize(d); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if !reflect.DeepEqual(before, d.Params()) {
		t.Error("Finalize() modified the draft")
	}
}

func TestConfigParamsIsCopy(t *testing.T) {
	cfg := mustResolve(t, "h264 "+base)
	p := cfg.Params()
	p.SourceFiles[0] = "changed"
	p.Width = 1

	again := cfg.Params()
	if again.SourceFiles[0] != "in.yuv" || again.Width != 640 {
		t.Error("mutating Params() result changed the configuration")
	}
}

func TestRulePhasesAreOrdered(t *testing.T) {
	for i := 1; i < len(rules); i++ {
		if rules[i].phase < rules[i-1].phase {
			t.Errorf("rule %q (%s) runs after %q (%s)", rules[i].name, rules[i].phase, rules[i-1].name, rules[i-1].phase)
		}
	}
}
