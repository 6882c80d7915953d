// Package engine implements the encode pipeline variants on top of an ffmpeg
// child process.
//
// An Engine builds one ffmpeg command per run from the resolved
// configuration. Run classifies the exit of the child: a clean exit is
// success, and device conditions reported on stderr map to the recoverable
// statuses the supervisor retries.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/smazurov/encodenode/internal/ffmpeg"
	"github.com/smazurov/encodenode/internal/logging"
	"github.com/smazurov/encodenode/internal/pipeline"
	"github.com/smazurov/encodenode/internal/process"
	"github.com/smazurov/encodenode/internal/resolver"
	"github.com/smazurov/encodenode/internal/types"
)

const tailLines = 64

// Settings configures the ffmpeg engine.
type Settings struct {
	Binary          string        // ffmpeg executable, looked up in PATH
	HWDevice        string        // render node for hardware encoders
	ShutdownTimeout time.Duration // grace period after SIGINT before SIGKILL
	// SkipEncoderCheck disables probing ffmpeg -encoders during Init.
	SkipEncoderCheck bool
	// OnProgress, when set, enables -progress output and receives every block.
	OnProgress func(ffmpeg.Progress)
}

// Engine is one pipeline instance of a fixed variant.
type Engine struct {
	ctx          context.Context
	variant      pipeline.Variant
	settings     Settings
	logger       *slog.Logger
	ffmpegLogger logging.Logger
	stat         statFunc
	probe        captureProbe

	multiView bool
	numViews  int

	binary    string
	params    types.Params
	encoder   ffmpeg.Encoder
	command   *ffmpeg.Params
	tail      *process.Tail
	capturing bool
	runs      int
}

// New creates an engine for variant v. It does not touch the device or the
// ffmpeg binary until Init.
func New(ctx context.Context, v pipeline.Variant, settings Settings, logger *slog.Logger, ffmpegLogger logging.Logger) *Engine {
	if ctx == nil {
		ctx = context.Background()
	}
	if settings.Binary == "" {
		settings.Binary = "ffmpeg"
	}
	if settings.HWDevice == "" {
		settings.HWDevice = DefaultRenderNode
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if ffmpegLogger == nil {
		ffmpegLogger = logger
	}
	return &Engine{
		ctx:          ctx,
		variant:      v,
		settings:     settings,
		logger:       logger.With("variant", v.String()),
		ffmpegLogger: ffmpegLogger,
		stat:         os.Stat,
		probe:        probeV4L2,
		tail:         process.NewTail(tailLines),
	}
}

// NewFactory returns a pipeline factory producing engines that share settings and loggers.
func NewFactory(ctx context.Context, settings Settings, logger *slog.Logger, ffmpegLogger logging.Logger) pipeline.Factory {
	return pipeline.FactoryFunc(func(v pipeline.Variant) pipeline.Pipeline {
		return New(ctx, v, settings, logger, ffmpegLogger)
	})
}

// Variant returns the variant the engine was built for.
func (e *Engine) Variant() pipeline.Variant {
	return e.variant
}

func (e *Engine) SetMultiView() {
	e.multiView = true
}

func (e *Engine) SetNumViews(n int) {
	e.numViews = n
}

// Init selects the encoder, opens the hardware device and prepares the command.
func (e *Engine) Init(cfg resolver.Config) pipeline.Status {
	binary, err := exec.LookPath(e.settings.Binary)
	if err != nil {
		e.logger.Error("ffmpeg binary not found", "binary", e.settings.Binary, "error", err)
		return pipeline.StatusOtherFailure
	}
	e.binary = binary

	params := cfg.Params()
	if e.multiView && e.numViews != len(params.SourceFiles) {
		e.logger.Error("View count does not match inputs", "views", e.numViews, "inputs", len(params.SourceFiles))
		return pipeline.StatusOtherFailure
	}

	enc, err := ffmpeg.SelectEncoder(params.Codec, params.UseHWLib)
	if err != nil {
		e.logger.Error("No encoder for codec", "codec", params.Codec, "error", err)
		return pipeline.StatusOtherFailure
	}
	e.encoder = enc

	if enc.Hardware() {
		if err := checkCharDevice(e.stat, e.settings.HWDevice); err != nil {
			e.logger.Error("Hardware device unavailable", "device", e.settings.HWDevice, "error", err)
			return pipeline.StatusDeviceFailed
		}
	}

	if !e.settings.SkipEncoderCheck {
		if status := e.checkEncoder(); status != pipeline.StatusSuccess {
			return status
		}
	}

	e.warnIgnored(params)
	return e.prepare(params)
}

func (e *Engine) checkEncoder() pipeline.Status {
	available, err := ffmpeg.ListEncoders(e.ctx, e.binary)
	if err != nil {
		e.logger.Error("Failed to list ffmpeg encoders", "error", err)
		return pipeline.StatusOtherFailure
	}
	if !slices.ContainsFunc(available, func(a ffmpeg.AvailableEncoder) bool { return a.Name == e.encoder.Name }) {
		e.logger.Error("Encoder not available in ffmpeg build", "encoder", e.encoder.Name)
		return pipeline.StatusOtherFailure
	}
	return pipeline.StatusSuccess
}

// warnIgnored logs parameters the ffmpeg encoders have no equivalent for.
func (e *Engine) warnIgnored(p types.Params) {
	if p.Plugin.Load == types.PluginByFile {
		e.logger.Warn("Encoder plugin libraries are not loaded by ffmpeg, ignoring", "path", p.Plugin.Path)
	}
	if p.Plugin.Load == types.PluginByGUID && e.encoder.Name != "hevc_qsv" {
		e.logger.Warn("Encoder plugin GUID only applies to hevc_qsv, ignoring", "guid", p.Plugin.GUID)
	}
	if p.GPUCopy != "" {
		e.logger.Warn("GPU copy mode is chosen by the driver, ignoring", "gpucopy", p.GPUCopy)
	}
	if p.MemType == types.MemD3D9 || p.MemType == types.MemD3D11 {
		e.logger.Warn("Direct3D surfaces are unavailable, using system memory", "mem_type", p.MemType)
	}
	if p.Capture.Enabled && p.Capture.MipiPort >= 0 {
		e.logger.Debug("MIPI port selection is left to the V4L2 device node", "port", p.Capture.MipiPort, "mode", p.Capture.MipiMode)
	}
}

func (e *Engine) prepare(p types.Params) pipeline.Status {
	j := job{variant: e.variant, params: p, encoder: e.encoder, device: e.settings.HWDevice}
	command, err := j.build()
	if err != nil {
		e.logger.Error("Failed to build ffmpeg command", "error", err)
		return pipeline.StatusOtherFailure
	}
	command.Progress = e.settings.OnProgress != nil
	e.params = p
	e.command = command
	return pipeline.StatusSuccess
}

// Args returns the command line of the next run, or nil before Init.
func (e *Engine) Args() []string {
	if e.command == nil {
		return nil
	}
	args, err := ffmpeg.BuildArgs(e.binary, e.command)
	if err != nil {
		return nil
	}
	return args
}

// Run executes ffmpeg once. An interrupted run counts as success.
func (e *Engine) Run() pipeline.Status {
	args := e.Args()
	if args == nil {
		e.logger.Error("Run called before Init")
		return pipeline.StatusOtherFailure
	}

	e.runs++
	e.tail.Reset()
	proc := process.New(fmt.Sprintf("ffmpeg-%d", e.runs), args, e.logger)
	proc.SetLogParser(e.ffmpegLogger, parseOutput)
	proc.AddOutputHandler(e.tail)
	if e.settings.OnProgress != nil {
		proc.AddOutputHandler(ffmpeg.NewProgressParser(e.settings.OnProgress))
	}
	proc.SetGracefulTimeout(e.settings.ShutdownTimeout)

	res := proc.Run(e.ctx)
	switch {
	case res.Err != nil:
		e.logger.Error("Failed to start ffmpeg", "error", res.Err)
		return pipeline.StatusOtherFailure
	case res.Interrupted:
		e.logger.Info("Encoding interrupted", "exit_code", res.ExitCode)
		return pipeline.StatusSuccess
	case res.ExitCode == 0:
		return pipeline.StatusSuccess
	}

	failure := ffmpeg.ClassifyFailure(e.tail.Lines())
	e.logger.Warn("ffmpeg failed", "exit_code", res.ExitCode, "cause", failure.String())
	switch failure {
	case ffmpeg.FailureDeviceLost:
		return pipeline.StatusDeviceLost
	case ffmpeg.FailureDeviceFailed:
		return pipeline.StatusDeviceFailed
	default:
		return pipeline.StatusOtherFailure
	}
}

// parseOutput demotes -progress blocks to debug so they stay out of the info log.
func parseOutput(line string) (level, msg string) {
	if ffmpeg.IsProgressLine(line) {
		return "debug", line
	}
	return ffmpeg.ParseLogLevel(line)
}

// ResetDevice re-probes the hardware render node.
func (e *Engine) ResetDevice() pipeline.Status {
	if !e.encoder.Hardware() {
		return pipeline.StatusSuccess
	}
	if err := checkCharDevice(e.stat, e.settings.HWDevice); err != nil {
		e.logger.Error("Hardware device did not come back", "device", e.settings.HWDevice, "error", err)
		return pipeline.StatusDeviceFailed
	}
	e.logger.Info("Hardware device available", "device", e.settings.HWDevice)
	return pipeline.StatusSuccess
}

// ResetComponents rebuilds the command from cfg.
func (e *Engine) ResetComponents(cfg resolver.Config) pipeline.Status {
	return e.prepare(cfg.Params())
}

func (e *Engine) Close() {
	e.command = nil
	e.logger.Debug("Engine closed", "runs", e.runs)
}

// CaptureStart verifies the capture device when capture input is configured.
func (e *Engine) CaptureStart() pipeline.Status {
	if !e.params.Capture.Enabled {
		return pipeline.StatusSuccess
	}
	if err := checkCharDevice(e.stat, e.params.Capture.Device); err != nil {
		e.logger.Error("Capture device unavailable", "error", err)
		return pipeline.StatusOtherFailure
	}
	if err := e.probe(e.params.Capture.Device, e.params.Capture.Format); err != nil {
		e.logger.Error("Capture device cannot deliver the requested format", "error", err)
		return pipeline.StatusOtherFailure
	}
	e.capturing = true
	e.logger.Info("Capture started", "device", e.params.Capture.Device)
	return pipeline.StatusSuccess
}

func (e *Engine) CaptureStop() {
	if !e.capturing {
		return
	}
	e.capturing = false
	e.logger.Info("Capture stopped", "device", e.params.Capture.Device)
}

// PrintInfo writes the pipeline configuration.
func (e *Engine) PrintInfo(w io.Writer) {
	p := e.params
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k string, v any) { fmt.Fprintf(tw, "%s\t%v\n", k, v) }

	row("Encoding", p.Codec)
	row("Encoder", fmt.Sprintf("%s (%s)", e.encoder.Name, e.encoder.Backend))
	if e.encoder.Hardware() {
		row("Device", e.settings.HWDevice)
	}
	if p.Capture.Enabled {
		row("Input", "capture "+p.Capture.Device)
	} else {
		row("Input", fmt.Sprintf("%v (%s)", p.SourceFiles, p.ColorFormat))
	}
	row("Output", outputPaths(e.command))
	row("Source picture", fmt.Sprintf("%dx%d %s", p.Width, p.Height, p.PicStruct))
	row("Destination picture", fmt.Sprintf("%dx%d", p.DstWidth, p.DstHeight))
	row("Frame rate", p.FrameRate)
	if p.Codec == types.CodecJPEG {
		row("Quality", p.Quality)
	} else {
		row("Rate control", p.RateControl)
		row("Target usage", p.TargetUsage)
		if p.RateControl == types.RateControlCQP {
			row("QPI/QPP/QPB", fmt.Sprintf("%d/%d/%d", p.QPI, p.QPP, p.QPB))
		} else {
			row("Bit rate (Kbps)", p.BitRate)
		}
	}
	row("Async depth", p.AsyncDepth)
	row("Memory type", p.MemType)
	if p.MultiView {
		row("Views", e.numViews)
	}
	if e.variant == pipeline.VariantRegionEncode {
		row("Regions", regionCount(p))
	}
	if e.variant == pipeline.VariantUserAugmented {
		row("Rotation", fmt.Sprintf("%d (%s)", p.RotationAngle, p.RotatePluginPath))
	}
	tw.Flush()
}

func outputPaths(cmd *ffmpeg.Params) []string {
	if cmd == nil {
		return nil
	}
	paths := make([]string, len(cmd.Outputs))
	for i, o := range cmd.Outputs {
		paths[i] = o.Path
	}
	return paths
}
