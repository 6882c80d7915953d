package resolver

import (
	"math"
	"testing"

	"github.com/smazurov/encodenode/internal/types"
)

func TestDefaultBitrate(t *testing.T) {
	tests := []struct {
		name  string
		codec types.Codec
		usage types.TargetUsage
		w, h  uint16
		fps   float64
		want  uint16
	}{
		{"avc breakpoint quality", types.CodecH264, types.TargetUsageQuality, 640, 648, 30, 4000},
		{"avc breakpoint balanced", types.CodecH264, types.TargetUsageBalanced, 640, 648, 30, 3000},
		{"avc breakpoint speed", types.CodecH264, types.TargetUsageSpeed, 640, 648, 30, 2000},
		{"avc cif", types.CodecH264, types.TargetUsageQuality, 352, 288, 30, 1000},
		{"avc half frame rate", types.CodecH264, types.TargetUsageQuality, 352, 288, 15, 483},
		{"hevc breakpoint", types.CodecH265, types.TargetUsageQuality, 640, 648, 30, 3076},
		{"mpeg2 breakpoint", types.CodecMPEG2, types.TargetUsageQuality, 640, 648, 30, 12000},
		{"vp8 uses default curve", types.CodecVP8, types.TargetUsageBalanced, 640, 648, 30, 9000},
		{"mpeg2 extrapolated saturates", types.CodecMPEG2, types.TargetUsageQuality, 4096, 2160, 60, math.MaxUint16},
		{"zero area", types.CodecH264, types.TargetUsageQuality, 0, 480, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultBitrate(tt.codec, tt.usage, tt.w, tt.h, tt.fps)
			if got != tt.want {
				t.Errorf("DefaultBitrate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInterpolateExtrapolatesLastSegment(t *testing.T) {
	// Past 2058240 the avc curve keeps the slope of its last segment.
	x := 2058240.0 + (2058240.0 - 414720.0)
	got := interpolate(avcCurve, x)
	if math.Abs(got-6000) > 1e-9 {
		t.Errorf("interpolate() = %v, want 6000", got)
	}
}
