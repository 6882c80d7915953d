package engine

import (
	"strconv"

	"github.com/smazurov/encodenode/internal/ffmpeg"
	"github.com/smazurov/encodenode/internal/pipeline"
	"github.com/smazurov/encodenode/internal/types"
)

// encoderArgs maps the resolved parameters onto options of enc.
func encoderArgs(p types.Params, enc ffmpeg.Encoder, v pipeline.Variant) []string {
	var args []string
	add := func(a ...string) { args = append(args, a...) }
	qsv := enc.Backend == ffmpeg.BackendQSV

	add(presetArgs(enc, p.TargetUsage)...)

	switch {
	case p.Codec == types.CodecJPEG:
		if qsv {
			add("-global_quality", itoa(p.Quality))
		} else {
			add("-q:v", strconv.Itoa(mjpegQScale(p.Quality)))
		}
	case p.RateControl == types.RateControlCQP:
		add(cqpArgs(p, enc)...)
	case p.RateControl == types.RateControlLookAhead:
		add("-b:v", kbps(int(p.BitRate)), "-look_ahead", "1", "-look_ahead_depth", itoa(p.LADepth))
	default:
		rate := kbps(int(p.BitRate))
		add("-b:v", rate, "-maxrate", rate, "-bufsize", kbps(2*int(p.BitRate)))
	}

	if p.GopPicSize > 0 {
		add("-g", itoa(p.GopPicSize))
	}
	if p.GopRefDist > 0 {
		add("-bf", strconv.Itoa(int(p.GopRefDist)-1))
	}
	if p.NumRefFrame > 0 {
		add("-refs", itoa(p.NumRefFrame))
	}
	add(pyramidArgs(p.BRefType, enc)...)
	if qsv && p.IdrInterval > 0 {
		add("-idr_interval", itoa(p.IdrInterval))
	}

	// Region encode produces one stream per region, each a single slice.
	if p.NumSlice > 0 && v != pipeline.VariantRegionEncode {
		add("-slices", itoa(p.NumSlice))
	}

	if qsv {
		if p.MaxSliceSize > 0 {
			add("-max_slice_size", strconv.FormatUint(uint64(p.MaxSliceSize), 10))
		}
		if p.AsyncDepth > 0 {
			add("-async_depth", itoa(p.AsyncDepth))
		}
		if p.EnableQSVFF {
			add("-low_power", "1")
		}
		if p.Plugin.Load == types.PluginByGUID && p.Plugin.GUID != "" && enc.Name == "hevc_qsv" {
			add("-load_plugins", p.Plugin.GUID)
		}
	}

	if p.Interlaced() && p.Codec != types.CodecJPEG {
		order := "tt"
		if p.PicStruct == types.PicFieldBFF {
			order = "bb"
		}
		add("-flags", "+ildct+ilme", "-field_order", order)
	}

	if p.NumFrames > 0 {
		add("-frames:v", strconv.FormatUint(uint64(p.NumFrames), 10))
	}

	return args
}

func presetArgs(enc ffmpeg.Encoder, tu types.TargetUsage) []string {
	if tu == "" {
		return nil
	}
	switch enc.Name {
	case "h264_qsv", "hevc_qsv", "mpeg2_qsv", "libx264", "libx265":
		preset := map[types.TargetUsage]string{
			types.TargetUsageQuality:  "veryslow",
			types.TargetUsageBalanced: "medium",
			types.TargetUsageSpeed:    "veryfast",
		}[tu]
		return []string{"-preset", preset}
	case "libvpx":
		deadline := map[types.TargetUsage]string{
			types.TargetUsageQuality:  "best",
			types.TargetUsageBalanced: "good",
			types.TargetUsageSpeed:    "realtime",
		}[tu]
		return []string{"-deadline", deadline}
	case "vp8_vaapi":
		level := map[types.TargetUsage]string{
			types.TargetUsageQuality:  "1",
			types.TargetUsageBalanced: "4",
			types.TargetUsageSpeed:    "7",
		}[tu]
		return []string{"-compression_level", level}
	}
	return nil
}

// cqpArgs expresses the I and B quantizers as offsets from the P quantizer.
func cqpArgs(p types.Params, enc ffmpeg.Encoder) []string {
	offset := func(q uint16) string { return strconv.Itoa(int(q) - int(p.QPP)) }
	switch enc.Name {
	case "h264_qsv", "hevc_qsv", "mpeg2_qsv":
		return []string{
			"-q:v", itoa(p.QPP),
			"-i_qfactor", "1", "-i_qoffset", offset(p.QPI),
			"-b_qfactor", "1", "-b_qoffset", offset(p.QPB),
		}
	case "libx264", "libx265":
		return []string{"-qp", itoa(p.QPP)}
	case "libvpx":
		return []string{"-qmin", itoa(p.QPP), "-qmax", itoa(p.QPP)}
	default:
		return []string{"-q:v", strconv.Itoa(clamp(int(p.QPP), 1, 31))}
	}
}

func pyramidArgs(bref types.BRefType, enc ffmpeg.Encoder) []string {
	switch {
	case bref == "":
		return nil
	case enc.Backend == ffmpeg.BackendQSV:
		if bref == types.BRefPyramid {
			return []string{"-b_strategy", "1"}
		}
		return []string{"-b_strategy", "0"}
	case enc.Name == "libx264":
		if bref == types.BRefPyramid {
			return []string{"-b-pyramid", "normal"}
		}
		return []string{"-b-pyramid", "none"}
	}
	return nil
}

// mjpegQScale maps JPEG quality 1..100 onto the mjpeg qscale range 31..2.
func mjpegQScale(quality uint16) int {
	q := clamp(int(quality), 1, 100)
	return 31 - (q-1)*29/99
}

func kbps(n int) string {
	return strconv.Itoa(n) + "k"
}

func itoa(n uint16) string {
	return strconv.Itoa(int(n))
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
