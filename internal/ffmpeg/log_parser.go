package ffmpeg

import (
	"regexp"
	"strings"
)

// ParseLogLevel extracts the log level from ffmpeg output.
// FFmpeg with -loglevel level+info outputs lines like "[info] message"
// or "[component @ 0x...] [level] message" for component-specific logs.
// Returns the level and the message with level stripped but component preserved.
func ParseLogLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return "info", line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return "info", line
	}

	bracket := line[1:end]
	if isLogLevel(bracket) {
		return bracket, line[end+2:]
	}

	// [component @ 0x...] [level] message keeps the component
	component := line[:end+2]
	rest := line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if nextEnd := strings.Index(rest, "] "); nextEnd != -1 {
			if next := rest[1:nextEnd]; isLogLevel(next) {
				return next, component + rest[nextEnd+2:]
			}
		}
	}

	return "info", line
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}

// Failure classifies why an encode ended unsuccessfully.
type Failure int

const (
	FailureOther Failure = iota
	FailureDeviceLost
	FailureDeviceFailed
)

func (f Failure) String() string {
	switch f {
	case FailureDeviceLost:
		return "device_lost"
	case FailureDeviceFailed:
		return "device_failed"
	default:
		return "other"
	}
}

var (
	deviceLostPattern   = regexp.MustCompile(`(?i)MFX_ERR_DEVICE_LOST|device (was )?lost|GPU hang`)
	deviceFailedPattern = regexp.MustCompile(`(?i)MFX_ERR_DEVICE_FAILED|failed to (create|initiali[sz]e|open) .*device|device creation failed|error creating a MFX session`)
)

// ClassifyFailure inspects the output of a failed run. The most recent line
// that names a device condition decides the result.
func ClassifyFailure(lines []string) Failure {
	for i := len(lines) - 1; i >= 0; i-- {
		switch {
		case deviceLostPattern.MatchString(lines[i]):
			return FailureDeviceLost
		case deviceFailedPattern.MatchString(lines[i]):
			return FailureDeviceFailed
		}
	}
	return FailureOther
}
