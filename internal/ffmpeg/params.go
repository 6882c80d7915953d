package ffmpeg

// Input is one demuxer input of the command.
type Input struct {
	Format      string   // rawvideo, v4l2
	PixelFormat string   // yuv420p, nv12, yuyv422
	Size        string   // 1920x1080
	FrameRate   string   // 30, 29.97
	Options     []string // extra demuxer options placed before -i
	Path        string
}

// Output is one muxer output of the command.
type Output struct {
	Maps        []string // stream specifiers or filter labels; empty uses the default mapping
	Encoder     string   // h264_qsv, libx264, etc.
	EncoderArgs []string
	Format      string // elementary stream muxer
	Path        string
}

// Params represents all parameters needed to generate an FFmpeg command.
type Params struct {
	// Hardware devices and other global options, placed before the inputs.
	GlobalArgs []string
	// Progress writes key=value progress blocks to stdout.
	Progress bool
	Inputs     []Input

	// VideoFilters is a simple filter chain for single-output commands.
	// FilterComplex takes precedence when both are set.
	VideoFilters  string
	FilterComplex string

	Outputs []Output
}
