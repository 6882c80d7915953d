package engine

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/smazurov/encodenode/internal/ffmpeg"
	"github.com/smazurov/encodenode/internal/pipeline"
	"github.com/smazurov/encodenode/internal/types"
)

// graphBuilder accumulates filter_complex segments.
type graphBuilder struct {
	segs []string
}

// add appends "[in...]chain[out...]". An empty chain becomes the null filter.
func (g *graphBuilder) add(inputs []string, chain string, outputs ...string) {
	if chain == "" {
		chain = "null"
	}
	var b strings.Builder
	for _, in := range inputs {
		b.WriteString(ffmpeg.Label(in))
	}
	b.WriteString(chain)
	for _, out := range outputs {
		b.WriteString(ffmpeg.Label(out))
	}
	g.segs = append(g.segs, b.String())
}

func (g *graphBuilder) String() string {
	return strings.Join(g.segs, ";")
}

// band is one horizontal region of the frame.
type band struct {
	y, height int
}

// regionBands splits height into n bands of even height. The last band
// absorbs the remainder.
func regionBands(height, n int) ([]band, error) {
	step := (height / n) &^ 1
	if step == 0 {
		return nil, fmt.Errorf("frame height %d too small for %d regions", height, n)
	}
	bands := make([]band, n)
	for i := range bands {
		bands[i] = band{y: i * step, height: step}
	}
	bands[n-1].height = height - bands[n-1].y
	return bands, nil
}

// regionCount is the number of regions a region encode splits the frame into.
func regionCount(p types.Params) int {
	if p.NumSlice >= 2 {
		return int(p.NumSlice)
	}
	return 2
}

// job carries what the command is built from.
type job struct {
	variant pipeline.Variant
	params  types.Params
	encoder ffmpeg.Encoder
	device  string
}

// build produces the ffmpeg parameters for one run of the job.
func (j job) build() (*ffmpeg.Params, error) {
	p := j.params
	if len(p.DestFiles) == 0 {
		return nil, errors.New("no destination file")
	}

	out := &ffmpeg.Params{Inputs: inputs(p)}
	if len(out.Inputs) == 0 {
		return nil, errors.New("no input")
	}

	var upload string
	if j.encoder.Hardware() {
		out.GlobalArgs, upload = ffmpeg.HardwareContext(j.encoder.Backend, j.device)
	}
	encArgs := encoderArgs(p, j.encoder, j.variant)

	switch {
	case p.MultiView:
		j.multiView(out, upload, encArgs)
	case j.variant == pipeline.VariantRegionEncode:
		if err := j.regions(out, upload, encArgs); err != nil {
			return nil, err
		}
	default:
		var rotate string
		if j.variant == pipeline.VariantUserAugmented {
			var globals []string
			rotate, globals = rotationFilter(p, j.encoder.Hardware())
			out.GlobalArgs = append(out.GlobalArgs, globals...)
		}
		out.VideoFilters = ffmpeg.Chain(scaleFilter(p), rotate, upload)
		out.Outputs = []ffmpeg.Output{j.output(p.DestFiles[len(p.DestFiles)-1], encArgs)}
	}

	return out, nil
}

func (j job) output(path string, encArgs []string, maps ...string) ffmpeg.Output {
	return ffmpeg.Output{
		Maps:        maps,
		Encoder:     j.encoder.Name,
		EncoderArgs: slices.Clone(encArgs),
		Format:      j.encoder.Muxer,
		Path:        path,
	}
}

// viewLayout reports which multiview outputs are produced: one stream per
// view and the two views packed side by side.
func viewLayout(p types.Params) (perView, packed bool) {
	if !p.ViewOutput {
		return false, true
	}
	switch len(p.DestFiles) {
	case 1:
		return false, true
	case 2:
		return true, false
	default:
		return true, true
	}
}

func (j job) multiView(out *ffmpeg.Params, upload string, encArgs []string) {
	p := j.params
	perView, packed := viewLayout(p)

	var g graphBuilder
	for i := 0; i < 2; i++ {
		var outs []string
		if perView {
			outs = append(outs, "v"+strconv.Itoa(i))
		}
		if packed {
			outs = append(outs, "p"+strconv.Itoa(i))
		}
		chain := scaleFilter(p)
		if len(outs) > 1 {
			chain = ffmpeg.Chain(chain, "split")
		}
		g.add([]string{strconv.Itoa(i) + ":v"}, chain, outs...)
	}

	var labels []string
	if perView {
		labels = append(labels, "v0", "v1")
	}
	if packed {
		g.add([]string{"p0", "p1"}, "hstack=inputs=2", "packed")
		labels = append(labels, "packed")
	}

	dests := p.DestFiles
	if !p.ViewOutput {
		dests = dests[len(dests)-1:]
	}
	for i, label := range labels {
		if upload != "" {
			g.add([]string{label}, upload, label+"_hw")
			label += "_hw"
		}
		out.Outputs = append(out.Outputs, j.output(dests[i], encArgs, ffmpeg.Label(label)))
	}
	out.FilterComplex = g.String()
}

func (j job) regions(out *ffmpeg.Params, upload string, encArgs []string) error {
	p := j.params
	n := regionCount(p)
	bands, err := regionBands(int(p.Height), n)
	if err != nil {
		return err
	}

	var g graphBuilder
	split := make([]string, n)
	for i := range split {
		split[i] = "r" + strconv.Itoa(i)
	}
	g.add([]string{"0:v"}, "split="+strconv.Itoa(n), split...)

	dst := p.DestFiles[len(p.DestFiles)-1]
	for i, b := range bands {
		crop := fmt.Sprintf("crop=%d:%d:0:%d", p.Width, b.height, b.y)
		label := "c" + strconv.Itoa(i)
		g.add([]string{split[i]}, ffmpeg.Chain(crop, upload), label)
		out.Outputs = append(out.Outputs, j.output(regionPath(dst, i), encArgs, ffmpeg.Label(label)))
	}
	out.FilterComplex = g.String()
	return nil
}

// regionPath names the output file of region i.
func regionPath(dst string, i int) string {
	return dst + "." + strconv.Itoa(i)
}

func inputs(p types.Params) []ffmpeg.Input {
	size := fmt.Sprintf("%dx%d", p.Width, p.Height)
	rate := strconv.FormatFloat(p.FrameRate, 'f', -1, 64)

	if p.Capture.Enabled {
		return []ffmpeg.Input{{
			Format:      "v4l2",
			PixelFormat: captureFormat(p.Capture.Format),
			Size:        size,
			FrameRate:   rate,
			Path:        p.Capture.Device,
		}}
	}

	ins := make([]ffmpeg.Input, 0, len(p.SourceFiles))
	for _, src := range p.SourceFiles {
		ins = append(ins, ffmpeg.Input{
			Format:      "rawvideo",
			PixelFormat: pixelFormat(p.ColorFormat),
			Size:        size,
			FrameRate:   rate,
			Path:        src,
		})
	}
	return ins
}

func pixelFormat(c types.ColorFormat) string {
	switch c {
	case types.ColorNV12:
		return "nv12"
	case types.ColorYUY2:
		return "yuyv422"
	default:
		return "yuv420p"
	}
}

func captureFormat(c types.CaptureFormat) string {
	switch c {
	case types.CaptureUYVY:
		return "uyvy422"
	case types.CaptureYUY2:
		return "yuyv422"
	default:
		return ""
	}
}

func scaleFilter(p types.Params) string {
	if !p.Resized() {
		return ""
	}
	return fmt.Sprintf("scale=%d:%d", p.DstWidth, p.DstHeight)
}

// rotationFilter returns the 180 degree rotation stage. The OpenCL plugin
// runs on an OpenCL device derived from the encoder's VAAPI device when
// hardware encoding, else on its own device.
func rotationFilter(p types.Params, hardware bool) (filter string, globalArgs []string) {
	if p.RotationAngle != 180 {
		return "", nil
	}
	if p.RotatePluginPath != types.RotatePluginOpenCL {
		return "hflip,vflip", nil
	}
	globalArgs = []string{"-init_hw_device", "opencl=ocl", "-filter_hw_device", "ocl"}
	if hardware {
		globalArgs = []string{"-init_hw_device", "opencl=ocl@va"}
	}
	return "format=nv12,hwupload=derive_device=opencl,transpose_opencl=dir=clock,transpose_opencl=dir=clock,hwdownload,format=nv12", globalArgs
}
