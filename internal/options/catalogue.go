package options

import (
	"github.com/smazurov/encodenode/internal/types"
)

// catalogue lists every switch in usage order. Capability-gated entries are
// filtered by the registry.
func catalogue(caps types.Capabilities) []Option {
	opts := []Option{
		// Geometry
		{Name: "-w", Arg: "width", Category: CategoryGeometry, Description: "source picture width, mandatory",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.Width })},
		{Name: "-h", Arg: "height", Category: CategoryGeometry, Description: "source picture height, mandatory",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.Height })},
		{Name: "-dstw", Arg: "width", Category: CategoryGeometry, Description: "destination picture width, resizes when it differs from the source",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.DstWidth })},
		{Name: "-dsth", Arg: "height", Category: CategoryGeometry, Description: "destination picture height, resizes when it differs from the source",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.DstHeight })},

		// Color and format
		{Name: "-nv12", Category: CategoryFormat, Description: "input is NV12 instead of YUV420",
			Set: flag(func(p *types.Params) { p.ColorFormat = types.ColorNV12 })},
		{Name: "-yuy2", Category: CategoryFormat, Description: "input is YUY2, image codec or capture input only",
			Set: flag(func(p *types.Params) {
				p.ColorFormat = types.ColorYUY2
				if caps.V4L2 {
					p.Capture.Format = types.CaptureYUY2
				}
			})},
		{Name: "-tff", Category: CategoryFormat, Description: "input is interlaced, top field first",
			Set: flag(func(p *types.Params) { p.PicStruct = types.PicFieldTFF })},
		{Name: "-bff", Category: CategoryFormat, Description: "input is interlaced, bottom field first",
			Set: flag(func(p *types.Params) { p.PicStruct = types.PicFieldBFF })},
		{Name: "-f", Arg: "fps", Category: CategoryFormat, Description: "video frame rate, 30 when unset",
			Set: func(p *types.Params, value string) error {
				f, err := parseFrameRate(value)
				if err != nil {
					return err
				}
				p.FrameRate = f
				return nil
			}},
		{Name: "-n", Arg: "frames", Category: CategoryFormat, Description: "number of frames to process",
			Set: setUint32(func(p *types.Params) *uint32 { return &p.NumFrames })},

		// Rate control
		{Name: "-b", Arg: "kbps", Category: CategoryRateControl, Description: "bitrate in Kbps, computed from resolution and usage when unset",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.BitRate })},
		{Name: "-u", Arg: "usage", Category: CategoryRateControl, Description: "target usage: quality, balanced or speed",
			Set: func(p *types.Params, value string) error {
				tu, err := parseTargetUsage(value)
				if err != nil {
					return err
				}
				p.TargetUsage = tu
				return nil
			}},
		{Name: "-q", Arg: "quality", Category: CategoryRateControl, Description: "image codec quality in [1,100], mandatory for jpeg",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.Quality })},
		{Name: "-cqp", Category: CategoryRateControl, Description: "constant quantization parameter rate control",
			Set: flag(func(p *types.Params) { p.RateControl = types.RateControlCQP })},
		{Name: "-qpi", Arg: "qp", Category: CategoryRateControl, Description: "quantizer for I frames",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.QPI })},
		{Name: "-qpp", Arg: "qp", Category: CategoryRateControl, Description: "quantizer for P frames",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.QPP })},
		{Name: "-qpb", Arg: "qp", Category: CategoryRateControl, Description: "quantizer for B frames",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.QPB })},
		{Name: "-la", Category: CategoryRateControl, Description: "look-ahead rate control, hardware h264 only",
			Set: flag(func(p *types.Params) { p.RateControl = types.RateControlLookAhead })},
		{Name: "-lad", Arg: "depth", Category: CategoryRateControl, Description: "look-ahead depth in [10,100], or 1 with -mss; selects look-ahead rate control",
			Set: func(p *types.Params, value string) error {
				n, err := parseUint16(value)
				if err != nil {
					return err
				}
				p.RateControl = types.RateControlLookAhead
				p.LADepth = n
				return nil
			}},

		// GOP structure
		{Name: "-g", Arg: "size", Category: CategoryStructure, Description: "GOP size",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.GopPicSize })},
		{Name: "-r", Arg: "distance", Category: CategoryStructure, Description: "distance between I or P frames",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.GopRefDist })},
		{Name: "-x", Arg: "refs", Category: CategoryStructure, Description: "number of reference frames",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.NumRefFrame })},
		{Name: "-bref", Category: CategoryStructure, Description: "arrange B frames in a pyramid reference structure",
			Set: flag(func(p *types.Params) { p.BRefType = types.BRefPyramid })},
		{Name: "-nobref", Category: CategoryStructure, Description: "do not use B frames as references",
			Set: flag(func(p *types.Params) { p.BRefType = types.BRefOff })},
		{Name: "-idr_interval", Arg: "n", Category: CategoryStructure, Description: "IDR frame interval in I frames",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.IdrInterval })},

		// Slicing
		{Name: "-num_slice", Arg: "n", Category: CategorySlicing, Description: "number of slices per frame",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.NumSlice })},
		{Name: "-mss", Arg: "bytes", Category: CategorySlicing, Description: "maximum slice size in bytes, hardware h264 only, excludes -num_slice",
			Set: setUint32(func(p *types.Params) *uint32 { return &p.MaxSliceSize })},

		// Execution
		{Name: "-hw", Category: CategoryExecution, Description: "use the hardware backend (default)",
			Set: flag(func(p *types.Params) { p.UseHWLib = true })},
		{Name: "-sw", Category: CategoryExecution, Description: "use the software backend",
			Set: flag(func(p *types.Params) { p.UseHWLib = false })},
		{Name: "-async", Arg: "depth", Category: CategoryExecution, Description: "frames in flight in the encoder, 4 when unset",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.AsyncDepth })},
		{Name: "-gpucopy::on", Category: CategoryExecution, Description: "enable GPU copy",
			Set: flag(func(p *types.Params) { p.GPUCopy = types.GPUCopyOn })},
		{Name: "-gpucopy::off", Category: CategoryExecution, Description: "disable GPU copy",
			Set: flag(func(p *types.Params) { p.GPUCopy = types.GPUCopyOff })},
		{Name: "-qsv-ff", Category: CategoryExecution, Description: "use the fixed-function (low power) encoder",
			Set: flag(func(p *types.Params) { p.EnableQSVFF = true })},
		{Name: "-path", Arg: "path", Category: CategoryExecution, Description: "load the encoder plugin from a library path",
			Set: func(p *types.Params, value string) error {
				p.Plugin = types.Plugin{Load: types.PluginByFile, Path: value}
				return nil
			}},
		{Name: "-d3d", Capability: types.CapabilityD3D, Category: CategoryExecution, Description: "use D3D9 surfaces",
			Set: flag(func(p *types.Params) { p.MemType = types.MemD3D9 })},
		{Name: "-d3d11", Capability: types.CapabilityD3D, Category: CategoryExecution, Description: "use D3D11 surfaces",
			Set: flag(func(p *types.Params) { p.MemType = types.MemD3D11 })},
		{Name: "-vaapi", Capability: types.CapabilityVAAPI, Category: CategoryExecution, Description: "use VA-API surfaces",
			Set: flag(func(p *types.Params) { p.MemType = types.MemVAAPI })},

		// Features
		{Name: "-angle", Arg: "degrees", Category: CategoryFeatures, Description: "rotate frames, only 180 is supported",
			Set: setUint16(func(p *types.Params) *uint16 { return &p.RotationAngle })},
		{Name: "-opencl", Category: CategoryFeatures, Description: "rotate frames by 180 degrees with the OpenCL plugin",
			Set: flag(func(p *types.Params) {
				p.RotatePluginPath = types.RotatePluginOpenCL
				p.RotationAngle = 180
			})},
		{Name: "-viewoutput", Category: CategoryFeatures, Description: "write each multiview view to its own bitstream, mvc only",
			Set: flag(func(p *types.Params) { p.ViewOutput = true })},
		{Name: "-re", Category: CategoryFeatures, Description: "region encode, h265 only, disabled with resizing or rotation",
			Set: flag(func(p *types.Params) { p.RegionEncode = true })},

		// Files
		{Name: "-i", Arg: "file", Repeatable: true, Category: CategoryFiles, Description: "source file, repeat once per view for mvc",
			Set: func(p *types.Params, value string) error {
				p.SourceFiles = append(p.SourceFiles, value)
				return nil
			}},
		{Name: "-o", Arg: "file", Repeatable: true, Category: CategoryFiles, Description: "destination file, may repeat with -viewoutput",
			Set: func(p *types.Params, value string) error {
				p.DestFiles = append(p.DestFiles, value)
				return nil
			}},

		{Name: "-?", Category: CategoryGeneral, Description: "print this help",
			Set: func(*types.Params, string) error { return ErrHelp }},
	}

	if caps.V4L2 {
		opts = append(opts,
			Option{Name: "-i::v4l2", Capability: types.CapabilityV4L2, Category: CategoryCapture, Description: "read frames from a V4L2 capture device",
				Set: flag(func(p *types.Params) { p.Capture.Enabled = true })},
			Option{Name: "-d", Arg: "device", Capability: types.CapabilityV4L2, Category: CategoryCapture, Description: "capture device node",
				Set: func(p *types.Params, value string) error {
					p.Capture.Device = value
					return nil
				}},
			Option{Name: "-uyvy", Capability: types.CapabilityV4L2, Category: CategoryCapture, Description: "capture pixel format is UYVY",
				Set: flag(func(p *types.Params) { p.Capture.Format = types.CaptureUYVY })},
			Option{Name: "-p", Arg: "port", Capability: types.CapabilityV4L2, Category: CategoryCapture, Description: "MIPI port number",
				Set: func(p *types.Params, value string) error {
					n, err := parseInt(value)
					if err != nil {
						return err
					}
					p.Capture.MipiPort = n
					return nil
				}},
			Option{Name: "-m", Arg: "mode", Capability: types.CapabilityV4L2, Category: CategoryCapture, Description: "MIPI mode: still, video, preview or continuous",
				Set: func(p *types.Params, value string) error {
					p.Capture.MipiName = value
					p.Capture.MipiMode = parseMipiMode(value)
					return nil
				}},
		)
	} else {
		opts = append(opts, Option{Name: "-p", Arg: "guid", Category: CategoryExecution, Description: "load the encoder plugin with this 32 digit GUID",
			Set: func(p *types.Params, value string) error {
				guid, err := parseGUID(value)
				if err != nil {
					return err
				}
				p.Plugin = types.Plugin{Load: types.PluginByGUID, GUID: guid}
				return nil
			}})
	}

	return opts
}
