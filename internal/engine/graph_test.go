package engine

import (
	"strings"
	"testing"

	"github.com/smazurov/encodenode/internal/ffmpeg"
	"github.com/smazurov/encodenode/internal/options"
	"github.com/smazurov/encodenode/internal/pipeline"
	"github.com/smazurov/encodenode/internal/resolver"
	"github.com/smazurov/encodenode/internal/types"
)

const base = "-i in.yuv -o out.bin -w 640 -h 480"

func resolveArgs(t *testing.T, args string) resolver.Config {
	t.Helper()
	cfg, err := resolver.Resolve(strings.Fields(args), options.NewRegistry(types.DefaultCapabilities()))
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", args, err)
	}
	return cfg
}

func buildFor(t *testing.T, args string) (*ffmpeg.Params, ffmpeg.Encoder) {
	t.Helper()
	cfg := resolveArgs(t, args)
	p := cfg.Params()
	enc, err := ffmpeg.SelectEncoder(p.Codec, p.UseHWLib)
	if err != nil {
		t.Fatalf("SelectEncoder() error = %v", err)
	}
	j := job{variant: pipeline.Select(cfg), params: p, encoder: enc, device: DefaultRenderNode}
	out, err := j.build()
	if err != nil {
		t.Fatalf("build(%q) error = %v", args, err)
	}
	return out, enc
}

func TestBuildStandardSoftware(t *testing.T) {
	out, enc := buildFor(t, "h264 -sw -dstw 320 -dsth 240 "+base)

	if enc.Name != "libx264" {
		t.Fatalf("expected libx264, got %s", enc.Name)
	}
	if len(out.GlobalArgs) != 0 {
		t.Errorf("expected no hardware args, got %v", out.GlobalArgs)
	}
	if out.VideoFilters != "scale=320:240" {
		t.Errorf("VideoFilters = %q", out.VideoFilters)
	}
	in := out.Inputs[0]
	if in.Format != "rawvideo" || in.PixelFormat != "yuv420p" || in.Size != "640x480" || in.FrameRate != "30" || in.Path != "in.yuv" {
		t.Errorf("unexpected input %+v", in)
	}
	if len(out.Outputs) != 1 || out.Outputs[0].Path != "out.bin" || out.Outputs[0].Format != "h264" {
		t.Errorf("unexpected outputs %+v", out.Outputs)
	}
}

func TestBuildStandardHardwareUploads(t *testing.T) {
	out, _ := buildFor(t, "h264 -nv12 "+base)

	if !strings.Contains(strings.Join(out.GlobalArgs, " "), "qsv=hw@va") {
		t.Errorf("expected qsv device args, got %v", out.GlobalArgs)
	}
	if out.VideoFilters != "hwupload=extra_hw_frames=64,format=qsv" {
		t.Errorf("VideoFilters = %q", out.VideoFilters)
	}
	if out.Inputs[0].PixelFormat != "nv12" {
		t.Errorf("PixelFormat = %q", out.Inputs[0].PixelFormat)
	}
}

func TestBuildRotation(t *testing.T) {
	out, _ := buildFor(t, "h264 -sw -angle 180 "+base)
	if out.VideoFilters != "hflip,vflip" {
		t.Errorf("VideoFilters = %q", out.VideoFilters)
	}

	out, _ = buildFor(t, "h264 -sw -opencl "+base)
	if !strings.Contains(out.VideoFilters, "transpose_opencl=dir=clock,transpose_opencl=dir=clock") {
		t.Errorf("expected OpenCL rotation, got %q", out.VideoFilters)
	}
	if !strings.Contains(strings.Join(out.GlobalArgs, " "), "opencl=ocl") {
		t.Errorf("expected OpenCL device, got %v", out.GlobalArgs)
	}
}

func TestBuildRegionEncode(t *testing.T) {
	out, _ := buildFor(t, "h265 -sw -re -num_slice 3 "+base)

	want := "[0:v]split=3[r0][r1][r2];" +
		"[r0]crop=640:160:0:0[c0];" +
		"[r1]crop=640:160:0:160[c1];" +
		"[r2]crop=640:160:0:320[c2]"
	if out.FilterComplex != want {
		t.Errorf("FilterComplex =\n%s\nwant\n%s", out.FilterComplex, want)
	}
	if len(out.Outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(out.Outputs))
	}
	for i, o := range out.Outputs {
		if o.Path != regionPath("out.bin", i) || o.Maps[0] != "[c"+string(rune('0'+i))+"]" {
			t.Errorf("output %d = %+v", i, o)
		}
		if strings.Contains(strings.Join(o.EncoderArgs, " "), "-slices") {
			t.Errorf("region output %d should not set -slices: %v", i, o.EncoderArgs)
		}
	}
}

func TestBuildRegionEncodeDefaultsToTwoRegions(t *testing.T) {
	out, _ := buildFor(t, "h265 -sw -re "+base)
	if len(out.Outputs) != 2 {
		t.Errorf("expected 2 outputs, got %d", len(out.Outputs))
	}
}

func TestRegionBands(t *testing.T) {
	bands, err := regionBands(481, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []band{{0, 160}, {160, 160}, {320, 161}}
	for i := range want {
		if bands[i] != want[i] {
			t.Errorf("band %d = %+v, want %+v", i, bands[i], want[i])
		}
	}
	if _, err := regionBands(3, 4); err == nil {
		t.Error("expected error for too many regions")
	}
}

func TestBuildMultiViewLayouts(t *testing.T) {
	tests := []struct {
		name  string
		args  string
		paths []string
		maps  []string
		graph string
	}{
		{
			name:  "packed without view output",
			args:  "mvc -sw -i right " + base,
			paths: []string{"out.bin"},
			maps:  []string{"[packed]"},
			graph: "[0:v]null[p0];[1:v]null[p1];[p0][p1]hstack=inputs=2[packed]",
		},
		{
			name:  "one file per view",
			args:  "mvc -sw -viewoutput -i right -o b2 " + base,
			paths: []string{"b2", "out.bin"},
			maps:  []string{"[v0]", "[v1]"},
			graph: "[0:v]null[v0];[1:v]null[v1]",
		},
		{
			name:  "views and packed",
			args:  "mvc -sw -viewoutput -i right -o b2 -o b3 " + base,
			paths: []string{"b2", "b3", "out.bin"},
			maps:  []string{"[v0]", "[v1]", "[packed]"},
			graph: "[0:v]split[v0][p0];[1:v]split[v1][p1];[p0][p1]hstack=inputs=2[packed]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := buildFor(t, tt.args)
			if out.FilterComplex != tt.graph {
				t.Errorf("FilterComplex = %q, want %q", out.FilterComplex, tt.graph)
			}
			if len(out.Inputs) != 2 {
				t.Fatalf("expected 2 inputs, got %d", len(out.Inputs))
			}
			if len(out.Outputs) != len(tt.paths) {
				t.Fatalf("expected %d outputs, got %d", len(tt.paths), len(out.Outputs))
			}
			for i, o := range out.Outputs {
				if o.Path != tt.paths[i] || o.Maps[0] != tt.maps[i] {
					t.Errorf("output %d = %s %v, want %s %s", i, o.Path, o.Maps, tt.paths[i], tt.maps[i])
				}
			}
		})
	}
}

func TestBuildCaptureInput(t *testing.T) {
	cfg, err := resolver.Resolve(
		strings.Fields("h264 -sw -i::v4l2 -d /dev/video0 -uyvy -o out.h264 -w 640 -h 480"),
		options.NewRegistry(types.Capabilities{V4L2: true}),
	)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	p := cfg.Params()
	enc, _ := ffmpeg.SelectEncoder(p.Codec, p.UseHWLib)
	out, err := job{variant: pipeline.VariantStandard, params: p, encoder: enc}.build()
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	in := out.Inputs[0]
	if in.Format != "v4l2" || in.PixelFormat != "uyvy422" || in.Path != "/dev/video0" {
		t.Errorf("unexpected capture input %+v", in)
	}
}
