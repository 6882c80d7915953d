package ffmpeg

import (
	"errors"
	"strings"
)

// Base returns the ffmpeg arguments every command starts with.
// Logging uses level+info so ParseLogLevel can classify each line.
func Base(binary string) []string {
	if binary == "" {
		binary = "ffmpeg"
	}
	return []string{binary, "-hide_banner", "-nostdin", "-loglevel", "level+info", "-y"}
}

// BuildArgs builds an FFmpeg command line from structured parameters.
func BuildArgs(binary string, p *Params) ([]string, error) {
	if len(p.Inputs) == 0 {
		return nil, errors.New("ffmpeg: no inputs")
	}
	if len(p.Outputs) == 0 {
		return nil, errors.New("ffmpeg: no outputs")
	}

	args := Base(binary)
	if p.Progress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	args = append(args, p.GlobalArgs...)

	for _, in := range p.Inputs {
		if in.Path == "" {
			return nil, errors.New("ffmpeg: input without path")
		}
		if in.Format != "" {
			args = append(args, "-f", in.Format)
		}
		if in.PixelFormat != "" {
			if in.Format == "v4l2" {
				args = append(args, "-input_format", in.PixelFormat)
			} else {
				args = append(args, "-pix_fmt", in.PixelFormat)
			}
		}
		if in.Size != "" {
			args = append(args, "-video_size", in.Size)
		}
		if in.FrameRate != "" {
			args = append(args, "-framerate", in.FrameRate)
		}
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}

	switch {
	case p.FilterComplex != "":
		args = append(args, "-filter_complex", p.FilterComplex)
	case p.VideoFilters != "":
		args = append(args, "-vf", p.VideoFilters)
	}

	for _, out := range p.Outputs {
		if out.Path == "" {
			return nil, errors.New("ffmpeg: output without path")
		}
		for _, m := range out.Maps {
			args = append(args, "-map", m)
		}
		if out.Encoder != "" {
			args = append(args, "-c:v", out.Encoder)
		}
		args = append(args, out.EncoderArgs...)
		if out.Format != "" {
			args = append(args, "-f", out.Format)
		}
		args = append(args, out.Path)
	}

	return args, nil
}

// Label wraps a filter graph pad name in brackets.
func Label(name string) string {
	return "[" + name + "]"
}

// Chain joins filters into one linear chain, skipping empty entries.
func Chain(filters ...string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ",")
}
