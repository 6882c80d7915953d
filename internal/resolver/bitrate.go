package resolver

import (
	"math"

	"github.com/smazurov/encodenode/internal/types"
)

type point struct {
	x, y float64
}

var (
	avcCurve = []point{
		{0, 0},
		{25344, 225},
		{101376, 1000},
		{414720, 4000},
		{2058240, 5000},
	}
	hevcCurve = []point{
		{0, 0},
		{25344, 225 / 1.3},
		{101376, 1000 / 1.3},
		{414720, 4000 / 1.3},
		{2058240, 5000 / 1.3},
	}
	defaultCurve = []point{
		{0, 0},
		{414720, 12000},
	}
)

// interpolate evaluates the piecewise-linear function through pts at x.
// Past the last point the final segment is extended.
func interpolate(pts []point, x float64) float64 {
	if x <= pts[0].x {
		return pts[0].y
	}
	for i := 1; i < len(pts); i++ {
		if x <= pts[i].x || i == len(pts)-1 {
			a, b := pts[i-1], pts[i]
			return a.y + (x-a.x)*(b.y-a.y)/(b.x-a.x)
		}
	}
	return pts[len(pts)-1].y
}

// DefaultBitrate returns the bitrate in Kbps used when none is given. The
// area term is width*height scaled by frame rate relative to 30 fps.
func DefaultBitrate(codec types.Codec, usage types.TargetUsage, width, height uint16, fps float64) uint16 {
	area := float64(width) * float64(height) * fps / 30.0
	if area <= 0 {
		return 0
	}

	curve := defaultCurve
	switch codec {
	case types.CodecH265:
		curve = hevcCurve
	case types.CodecH264, types.CodecMVC:
		curve = avcCurve
	}

	kbps := interpolate(curve, area)
	switch usage {
	case types.TargetUsageQuality:
	case types.TargetUsageSpeed:
		kbps *= 0.5
	default:
		kbps *= 0.75
	}

	if kbps >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(kbps)
}
