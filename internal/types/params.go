package types

import "slices"

// RateControlMode represents the rate control strategy.
type RateControlMode string

const (
	RateControlCBR       RateControlMode = "cbr" // Constant bitrate
	RateControlCQP       RateControlMode = "cqp" // Constant quantization parameter
	RateControlLookAhead RateControlMode = "la"  // Look-ahead bitrate control
)

// TargetUsage trades encode quality against speed. The empty value means unset.
type TargetUsage string

const (
	TargetUsageQuality  TargetUsage = "quality"
	TargetUsageBalanced TargetUsage = "balanced"
	TargetUsageSpeed    TargetUsage = "speed"
)

// ColorFormat is the pixel layout of raw input frames.
type ColorFormat string

const (
	ColorYV12 ColorFormat = "yv12"
	ColorNV12 ColorFormat = "nv12"
	ColorYUY2 ColorFormat = "yuy2"
)

// PicStruct is the picture structure of the input.
type PicStruct string

const (
	PicProgressive PicStruct = "progressive"
	PicFieldTFF    PicStruct = "tff"
	PicFieldBFF    PicStruct = "bff"
)

// BRefType is the B-pyramid policy. The empty value leaves it to the encoder.
type BRefType string

const (
	BRefPyramid BRefType = "pyramid"
	BRefOff     BRefType = "off"
)

// GPUCopy selects the GPU-accelerated surface copy mode.
type GPUCopy string

const (
	GPUCopyOn  GPUCopy = "on"
	GPUCopyOff GPUCopy = "off"
)

// MemType is the surface memory type handed to the encoder.
type MemType string

const (
	MemSystem MemType = "system"
	MemD3D9   MemType = "d3d9"
	MemD3D11  MemType = "d3d11"
	MemVAAPI  MemType = "vaapi"
)

// PluginLoad tells how an encoder plugin is identified.
type PluginLoad string

const (
	PluginByGUID PluginLoad = "guid"
	PluginByFile PluginLoad = "file"
)

// CaptureFormat is the pixel format delivered by a capture device.
type CaptureFormat string

const (
	CaptureUYVY CaptureFormat = "uyvy"
	CaptureYUY2 CaptureFormat = "yuy2"
)

// MipiMode is the sensor mode of a MIPI capture port.
type MipiMode string

const (
	MipiStill      MipiMode = "still"
	MipiVideo      MipiMode = "video"
	MipiPreview    MipiMode = "preview"
	MipiContinuous MipiMode = "continuous"
)

// Rotation plugin libraries. The OpenCL one is selected by -opencl.
const (
	RotatePluginCPU    = "libsample_rotate_plugin.so"
	RotatePluginOpenCL = "libsample_plugin_opencl.so"
)

// Plugin identifies an encoder plugin by GUID or by library path.
type Plugin struct {
	Load PluginLoad `json:"load,omitempty" yaml:"load,omitempty" toml:"load,omitempty"`
	GUID string     `json:"guid,omitempty" yaml:"guid,omitempty" toml:"guid,omitempty"`
	Path string     `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// Capture holds the parameters of push-based device input.
type Capture struct {
	Enabled  bool          `json:"enabled" yaml:"enabled" toml:"enabled"`
	Device   string        `json:"device,omitempty" yaml:"device,omitempty" toml:"device,omitempty"`
	MipiPort int           `json:"mipi_port" yaml:"mipi_port" toml:"mipi_port"`
	MipiName string        `json:"mipi_mode_name,omitempty" yaml:"mipi_mode_name,omitempty" toml:"mipi_mode_name,omitempty"`
	MipiMode MipiMode      `json:"mipi_mode,omitempty" yaml:"mipi_mode,omitempty" toml:"mipi_mode,omitempty"`
	Format   CaptureFormat `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

// Params is the full set of encode parameters accumulated from the command line.
type Params struct {
	// Identity
	Codec      Codec `json:"codec" yaml:"codec" toml:"codec"`
	MultiView  bool  `json:"multiview" yaml:"multiview" toml:"multiview"`
	ViewOutput bool  `json:"view_output" yaml:"view_output" toml:"view_output"`
	NumViews   int   `json:"num_views" yaml:"num_views" toml:"num_views"`

	// Geometry
	Width     uint16 `json:"width" yaml:"width" toml:"width"`
	Height    uint16 `json:"height" yaml:"height" toml:"height"`
	DstWidth  uint16 `json:"dst_width" yaml:"dst_width" toml:"dst_width"`
	DstHeight uint16 `json:"dst_height" yaml:"dst_height" toml:"dst_height"`

	// Color and format
	ColorFormat ColorFormat `json:"color_format" yaml:"color_format" toml:"color_format"`
	PicStruct   PicStruct   `json:"pic_struct" yaml:"pic_struct" toml:"pic_struct"`

	// Rate control
	RateControl RateControlMode `json:"rate_control" yaml:"rate_control" toml:"rate_control"`
	BitRate     uint16          `json:"bitrate_kbps" yaml:"bitrate_kbps" toml:"bitrate_kbps"`
	TargetUsage TargetUsage     `json:"target_usage,omitempty" yaml:"target_usage,omitempty" toml:"target_usage,omitempty"`
	Quality     uint16          `json:"quality" yaml:"quality" toml:"quality"`
	QPI         uint16          `json:"qpi" yaml:"qpi" toml:"qpi"`
	QPP         uint16          `json:"qpp" yaml:"qpp" toml:"qpp"`
	QPB         uint16          `json:"qpb" yaml:"qpb" toml:"qpb"`
	LADepth     uint16          `json:"la_depth" yaml:"la_depth" toml:"la_depth"`
	FrameRate   float64         `json:"frame_rate" yaml:"frame_rate" toml:"frame_rate"`
	NumFrames   uint32          `json:"num_frames" yaml:"num_frames" toml:"num_frames"`

	// Structure
	GopPicSize  uint16   `json:"gop_size" yaml:"gop_size" toml:"gop_size"`
	GopRefDist  uint16   `json:"ref_dist" yaml:"ref_dist" toml:"ref_dist"`
	NumRefFrame uint16   `json:"num_ref_frames" yaml:"num_ref_frames" toml:"num_ref_frames"`
	BRefType    BRefType `json:"bref,omitempty" yaml:"bref,omitempty" toml:"bref,omitempty"`
	IdrInterval uint16   `json:"idr_interval" yaml:"idr_interval" toml:"idr_interval"`

	// Slicing
	NumSlice     uint16 `json:"num_slice" yaml:"num_slice" toml:"num_slice"`
	MaxSliceSize uint32 `json:"max_slice_size" yaml:"max_slice_size" toml:"max_slice_size"`

	// Execution
	UseHWLib         bool    `json:"hw" yaml:"hw" toml:"hw"`
	AsyncDepth       uint16  `json:"async_depth" yaml:"async_depth" toml:"async_depth"`
	GPUCopy          GPUCopy `json:"gpu_copy,omitempty" yaml:"gpu_copy,omitempty" toml:"gpu_copy,omitempty"`
	MemType          MemType `json:"mem_type,omitempty" yaml:"mem_type,omitempty" toml:"mem_type,omitempty"`
	Plugin           Plugin  `json:"plugin" yaml:"plugin" toml:"plugin"`
	RotatePluginPath string  `json:"rotate_plugin,omitempty" yaml:"rotate_plugin,omitempty" toml:"rotate_plugin,omitempty"`
	EnableQSVFF      bool    `json:"qsv_ff" yaml:"qsv_ff" toml:"qsv_ff"`

	// Feature toggles
	RegionEncode  bool    `json:"region_encode" yaml:"region_encode" toml:"region_encode"`
	RotationAngle uint16  `json:"rotation_angle" yaml:"rotation_angle" toml:"rotation_angle"`
	Capture       Capture `json:"capture" yaml:"capture" toml:"capture"`

	// File lists
	SourceFiles []string `json:"source_files" yaml:"source_files" toml:"source_files"`
	DestFiles   []string `json:"dest_files" yaml:"dest_files" toml:"dest_files"`
}

// NewParams returns parameters holding the values every parse starts from.
func NewParams() Params {
	return Params{
		UseHWLib: true,
		Capture:  Capture{MipiPort: -1},
	}
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	p.SourceFiles = slices.Clone(p.SourceFiles)
	p.DestFiles = slices.Clone(p.DestFiles)
	return p
}

// Resized reports whether the destination geometry differs from the source.
func (p Params) Resized() bool {
	return p.DstWidth != p.Width || p.DstHeight != p.Height
}

// Interlaced reports whether the input is field-coded.
func (p Params) Interlaced() bool {
	return p.PicStruct == PicFieldTFF || p.PicStruct == PicFieldBFF
}
