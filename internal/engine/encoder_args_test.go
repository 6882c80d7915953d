package engine

import (
	"strings"
	"testing"

	"github.com/smazurov/encodenode/internal/ffmpeg"
	"github.com/smazurov/encodenode/internal/pipeline"
)

func argsFor(t *testing.T, args string) string {
	t.Helper()
	cfg := resolveArgs(t, args)
	p := cfg.Params()
	enc, err := ffmpeg.SelectEncoder(p.Codec, p.UseHWLib)
	if err != nil {
		t.Fatalf("SelectEncoder() error = %v", err)
	}
	return strings.Join(encoderArgs(p, enc, pipeline.Select(cfg)), " ")
}

func TestEncoderArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    []string
		notWant []string
	}{
		{
			name: "cbr defaults",
			args: "h264 " + base,
			want: []string{"-preset medium", "-b:v 2227k -maxrate 2227k -bufsize 4454k", "-async_depth 4"},
		},
		{
			name: "explicit bitrate and speed",
			args: "h264 -b 5000 -u speed " + base,
			want: []string{"-preset veryfast", "-b:v 5000k"},
		},
		{
			name:    "cqp on qsv",
			args:    "h264 -cqp -qpi 20 -qpp 24 -qpb 28 " + base,
			want:    []string{"-q:v 24 -i_qfactor 1 -i_qoffset -4 -b_qfactor 1 -b_qoffset 4"},
			notWant: []string{"-b:v"},
		},
		{
			name: "cqp on x264",
			args: "h264 -sw -cqp -qpp 30 " + base,
			want: []string{"-qp 30"},
		},
		{
			name: "look-ahead",
			args: "h264 -lad 40 " + base,
			want: []string{"-look_ahead 1 -look_ahead_depth 40"},
		},
		{
			name: "structure",
			args: "h264 -g 30 -r 3 -x 2 -bref -idr_interval 2 " + base,
			want: []string{"-g 30", "-bf 2", "-refs 2", "-b_strategy 1", "-idr_interval 2"},
		},
		{
			name:    "x264 pyramid off",
			args:    "h264 -sw -nobref " + base,
			want:    []string{"-b-pyramid none"},
			notWant: []string{"-idr_interval", "-async_depth"},
		},
		{
			name: "slices and frames",
			args: "h264 -num_slice 4 -n 100 " + base,
			want: []string{"-slices 4", "-frames:v 100"},
		},
		{
			name: "max slice size forces async 1",
			args: "h264 -mss 1500 " + base,
			want: []string{"-max_slice_size 1500", "-async_depth 1"},
		},
		{
			name: "low power",
			args: "h264 -qsv-ff " + base,
			want: []string{"-low_power 1"},
		},
		{
			name: "interlaced",
			args: "h264 -bff " + base,
			want: []string{"-flags +ildct+ilme -field_order bb"},
		},
		{
			name:    "jpeg hardware quality",
			args:    "jpeg -q 90 " + base,
			want:    []string{"-global_quality 90"},
			notWant: []string{"-preset", "-b:v"},
		},
		{
			name: "jpeg software quality",
			args: "jpeg -sw -q 100 " + base,
			want: []string{"-q:v 2"},
		},
		{
			name: "vp8 software deadline",
			args: "vp8 -sw -u quality " + base,
			want: []string{"-deadline best"},
		},
		{
			name: "hevc plugin guid",
			args: "h265 -p 6fadc791a0c2eb479ab6dcd5ea9da347 " + base,
			want: []string{"-load_plugins 6fadc791a0c2eb479ab6dcd5ea9da347"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsFor(t, tt.args)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("args %q missing %q", got, w)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("args %q should not contain %q", got, nw)
				}
			}
		})
	}
}

func TestMJPEGQScale(t *testing.T) {
	if got := mjpegQScale(1); got != 31 {
		t.Errorf("mjpegQScale(1) = %d, want 31", got)
	}
	if got := mjpegQScale(100); got != 2 {
		t.Errorf("mjpegQScale(100) = %d, want 2", got)
	}
}
