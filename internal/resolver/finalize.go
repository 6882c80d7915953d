package resolver

import (
	"fmt"

	"github.com/smazurov/encodenode/internal/types"
)

const (
	maxQP         = 51
	maxAsyncDepth = 20
	minLADepth    = 10
	maxLADepth    = 100
	maxQuality    = 100
	defaultFPS    = 30
	defaultAsync  = 4
	maxViewOutput = 3
)

type phase int

const (
	phasePresence phase = iota
	phaseExclusion
	phaseDefaulting
	phaseDemotion
)

func (p phase) String() string {
	switch p {
	case phasePresence:
		return "presence"
	case phaseExclusion:
		return "exclusion"
	case phaseDefaulting:
		return "defaulting"
	case phaseDemotion:
		return "demotion"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// rule is one cross-field check or default. apply may modify p and append
// adjustments; a returned error aborts Finalize.
type rule struct {
	name  string
	phase phase
	apply func(p *types.Params, adj *[]Adjustment) error
}

// check adapts a read-only validation to a rule body.
func check(fn func(p *types.Params) error) func(*types.Params, *[]Adjustment) error {
	return func(p *types.Params, _ *[]Adjustment) error { return fn(p) }
}

// set adapts a defaulting step to a rule body.
func set(fn func(p *types.Params)) func(*types.Params, *[]Adjustment) error {
	return func(p *types.Params, _ *[]Adjustment) error {
		fn(p)
		return nil
	}
}

// effectiveDst is the destination geometry after defaulting, computed without
// mutating p so exclusion checks see the value the encoder will use.
func effectiveDst(p *types.Params) (uint16, uint16) {
	w, h := p.DstWidth, p.DstHeight
	if w == 0 {
		w = p.Width
	}
	if h == 0 {
		h = p.Height
	}
	return w, h
}

// Finalize validates d and fills in defaults. The draft is not modified. The
// first violated rule aborts with no configuration returned.
func Finalize(d *Draft) (Config, error) {
	p := d.params.Clone()
	var adj []Adjustment

	for _, r := range rules {
		if err := r.apply(&p, &adj); err != nil {
			return Config{}, err
		}
	}

	return Config{params: p, adjustments: adj}, nil
}

// rules run in slice order. Phases never interleave: every presence check runs
// before any exclusion check, and no default is applied before the last
// exclusion check.
var rules = []rule{
	{"capture input", phasePresence, check(func(p *types.Params) error {
		c := p.Capture
		if !c.Enabled {
			return nil
		}
		if c.Device == "" {
			return ruleError(ErrMissingMandatoryParameter, "capture input needs a device name", "-i::v4l2", "-d")
		}
		if c.Format == "" {
			return ruleError(ErrMissingMandatoryParameter, "capture input needs a pixel format", "-uyvy", "-yuy2")
		}
		return nil
	})},
	{"source file", phasePresence, check(func(p *types.Params) error {
		if len(p.SourceFiles) == 0 && !p.Capture.Enabled {
			return ruleError(ErrMissingMandatoryParameter, "source file name not found", "-i")
		}
		return nil
	})},
	{"destination file", phasePresence, check(func(p *types.Params) error {
		if len(p.DestFiles) == 0 {
			return ruleError(ErrMissingMandatoryParameter, "destination file name not found", "-o")
		}
		return nil
	})},
	{"source geometry", phasePresence, check(func(p *types.Params) error {
		if p.Width == 0 || p.Height == 0 {
			return ruleError(ErrMissingMandatoryParameter, "width and height must be specified", "-w", "-h")
		}
		return nil
	})},
	{"codec", phasePresence, check(func(p *types.Params) error {
		if p.Codec == "" {
			return ruleError(ErrMissingMandatoryParameter, "codec identifier not found", "codec")
		}
		return nil
	})},

	{"mipi pairing", phaseExclusion, check(func(p *types.Params) error {
		c := p.Capture
		if c.Enabled && (c.MipiPort >= 0) != (c.MipiMode != "") {
			return ruleError(ErrIncompatibleOptionCombination, "MIPI port and mode must be given together", "-p", "-m")
		}
		return nil
	})},
	{"yuy2 input", phaseExclusion, check(func(p *types.Params) error {
		if p.ColorFormat == types.ColorYUY2 && !p.Codec.Image() && !p.Capture.Enabled {
			return ruleError(ErrIncompatibleOptionCombination, "yuy2 input is supported only by the jpeg encoder", "-yuy2")
		}
		return nil
	})},
	{"rotation angle", phaseExclusion, check(func(p *types.Params) error {
		if p.RotationAngle != 0 && p.RotationAngle != 180 {
			return ruleError(ErrInvalidOptionValue, fmt.Sprintf("angle %d is not supported, only 180", p.RotationAngle), "-angle")
		}
		return nil
	})},
	{"image quality", phaseExclusion, check(func(p *types.Params) error {
		if !p.Codec.Image() {
			if p.Quality != 0 {
				return ruleError(ErrIncompatibleOptionCombination, "quality is supported only by the jpeg encoder", "-q")
			}
			return nil
		}
		if p.Quality == 0 {
			return ruleError(ErrMissingMandatoryParameter, "jpeg encoder needs a quality", "-q")
		}
		if p.Quality > maxQuality {
			return ruleError(ErrInvalidOptionValue, fmt.Sprintf("quality %d is outside [1,%d]", p.Quality, maxQuality), "-q")
		}
		return nil
	})},
	{"image rate control", phaseExclusion, check(func(p *types.Params) error {
		if p.Codec.Image() && (p.TargetUsage != "" || p.BitRate != 0) {
			return ruleError(ErrIncompatibleOptionCombination, "target usage and bitrate are not supported by the jpeg encoder, use -q", "-u", "-b")
		}
		return nil
	})},
	{"view output", phaseExclusion, check(func(p *types.Params) error {
		if p.ViewOutput && !p.MultiView {
			return ruleError(ErrIncompatibleOptionCombination, "view output is supported only with the mvc codec", "-viewoutput")
		}
		if p.ViewOutput && len(p.DestFiles) > maxViewOutput {
			return ruleError(ErrIncompatibleOptionCombination, fmt.Sprintf("view output accepts at most %d destination files", maxViewOutput), "-viewoutput", "-o")
		}
		return nil
	})},
	{"multiview sources", phaseExclusion, check(func(p *types.Params) error {
		if p.MultiView && len(p.SourceFiles) != 2 {
			return ruleError(ErrIncompatibleOptionCombination, fmt.Sprintf("multiview needs exactly 2 source files, got %d", len(p.SourceFiles)), "mvc", "-i")
		}
		return nil
	})},
	{"look-ahead backend", phaseExclusion, check(func(p *types.Params) error {
		if p.RateControl == types.RateControlLookAhead && !p.UseHWLib {
			return ruleError(ErrIncompatibleOptionCombination, "look-ahead rate control is supported only with the hardware backend", "-la", "-sw")
		}
		return nil
	})},
	{"max slice size backend", phaseExclusion, check(func(p *types.Params) error {
		if p.MaxSliceSize != 0 && !p.UseHWLib {
			return ruleError(ErrIncompatibleOptionCombination, "max slice size is supported only with the hardware backend", "-mss", "-sw")
		}
		return nil
	})},
	{"max slice size and slice count", phaseExclusion, check(func(p *types.Params) error {
		if p.MaxSliceSize != 0 && p.NumSlice != 0 {
			return ruleError(ErrIncompatibleOptionCombination, "max slice size and slice count are mutually exclusive", "-mss", "-num_slice")
		}
		return nil
	})},
	{"look-ahead codec", phaseExclusion, check(func(p *types.Params) error {
		if p.RateControl == types.RateControlLookAhead && p.Codec != types.CodecH264 {
			return ruleError(ErrIncompatibleOptionCombination, "look-ahead rate control is supported only by the h264 encoder", "-la")
		}
		return nil
	})},
	{"max slice size codec", phaseExclusion, check(func(p *types.Params) error {
		if p.MaxSliceSize != 0 && p.Codec != types.CodecH264 {
			return ruleError(ErrIncompatibleOptionCombination, "max slice size is supported only by the h264 encoder", "-mss")
		}
		return nil
	})},
	{"look-ahead depth", phaseExclusion, check(func(p *types.Params) error {
		if p.LADepth == 0 || (p.LADepth >= minLADepth && p.LADepth <= maxLADepth) {
			return nil
		}
		if p.LADepth == 1 && p.MaxSliceSize != 0 {
			return nil
		}
		return ruleError(ErrInvalidOptionValue, fmt.Sprintf("depth %d must be in [%d,%d], or 1 with -mss", p.LADepth, minLADepth, maxLADepth), "-lad")
	})},
	{"quantizers", phaseExclusion, check(func(p *types.Params) error {
		for _, q := range []struct {
			name  string
			value uint16
		}{{"-qpi", p.QPI}, {"-qpp", p.QPP}, {"-qpb", p.QPB}} {
			if q.value > maxQP {
				return ruleError(ErrInvalidOptionValue, fmt.Sprintf("quantizer %d is outside [0,%d]", q.value, maxQP), q.name)
			}
		}
		return nil
	})},
	{"rotation compatibility", phaseExclusion, check(func(p *types.Params) error {
		if p.RotationAngle != 180 {
			return nil
		}
		dw, dh := effectiveDst(p)
		switch {
		case p.Interlaced():
			return ruleError(ErrIncompatibleOptionCombination, "rotation does not support interlaced input", "-angle", "-"+string(p.PicStruct))
		case dw != p.Width || dh != p.Height:
			return ruleError(ErrIncompatibleOptionCombination, "rotation does not support resizing", "-angle", "-dstw", "-dsth")
		case p.MultiView:
			return ruleError(ErrIncompatibleOptionCombination, "rotation does not support multiview", "-angle", "mvc")
		case p.RateControl == types.RateControlLookAhead:
			return ruleError(ErrIncompatibleOptionCombination, "rotation does not support look-ahead rate control", "-angle", "-la")
		}
		return nil
	})},
	{"async depth", phaseExclusion, check(func(p *types.Params) error {
		if p.MaxSliceSize == 0 && p.AsyncDepth > maxAsyncDepth {
			return ruleError(ErrInvalidOptionValue, fmt.Sprintf("depth %d is outside [1,%d]", p.AsyncDepth, maxAsyncDepth), "-async")
		}
		return nil
	})},

	{"view count", phaseDefaulting, set(func(p *types.Params) {
		if p.MultiView {
			p.NumViews = len(p.SourceFiles)
			return
		}
		p.NumViews = 1
		// Outside multiview the last -i wins.
		if n := len(p.SourceFiles); n > 1 {
			p.SourceFiles = p.SourceFiles[n-1:]
		}
	})},
	{"target usage", phaseDefaulting, set(func(p *types.Params) {
		if p.Codec.Image() {
			return
		}
		if p.TargetUsage != types.TargetUsageQuality && p.TargetUsage != types.TargetUsageSpeed {
			p.TargetUsage = types.TargetUsageBalanced
		}
	})},
	{"frame rate", phaseDefaulting, set(func(p *types.Params) {
		if p.FrameRate <= 0 {
			p.FrameRate = defaultFPS
		}
	})},
	{"destination geometry", phaseDefaulting, set(func(p *types.Params) {
		p.DstWidth, p.DstHeight = effectiveDst(p)
	})},
	{"bitrate", phaseDefaulting, set(func(p *types.Params) {
		if p.Codec.Image() || p.BitRate != 0 {
			return
		}
		p.BitRate = DefaultBitrate(p.Codec, p.TargetUsage, p.DstWidth, p.DstHeight, p.FrameRate)
	})},
	{"color format", phaseDefaulting, set(func(p *types.Params) {
		if p.ColorFormat == "" {
			p.ColorFormat = types.ColorYV12
		}
	})},
	{"picture structure", phaseDefaulting, set(func(p *types.Params) {
		if p.PicStruct == "" {
			p.PicStruct = types.PicProgressive
		}
	})},
	{"async depth", phaseDefaulting, set(func(p *types.Params) {
		if p.AsyncDepth == 0 {
			p.AsyncDepth = defaultAsync
		}
		if p.MaxSliceSize != 0 {
			p.AsyncDepth = 1
		}
	})},
	{"rate control", phaseDefaulting, set(func(p *types.Params) {
		if p.RateControl == "" {
			p.RateControl = types.RateControlCBR
		}
	})},
	{"memory type", phaseDefaulting, set(func(p *types.Params) {
		if p.MemType == "" {
			p.MemType = types.MemSystem
		}
	})},
	{"rotation plugin", phaseDefaulting, set(func(p *types.Params) {
		if p.RotationAngle == 180 && p.RotatePluginPath == "" {
			p.RotatePluginPath = types.RotatePluginCPU
		}
	})},

	{"region encode", phaseDemotion, func(p *types.Params, adj *[]Adjustment) error {
		if !p.RegionEncode {
			return nil
		}
		if p.Codec != types.CodecH265 {
			p.RegionEncode = false
			*adj = append(*adj, Adjustment{Option: "-re", Reason: "region encode is compatible with the h265 encoder only"})
			return nil
		}
		if p.Resized() || p.RotationAngle != 0 {
			p.RegionEncode = false
			*adj = append(*adj, Adjustment{Option: "-re", Reason: "region encode is not compatible with resizing or rotation"})
		}
		return nil
	}},
}
