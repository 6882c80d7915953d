package ffmpeg

import (
	"strconv"
	"strings"
	"sync"
)

// Progress is one block of ffmpeg -progress output.
type Progress struct {
	Frame           int64
	FPS             float64
	DroppedFrames   float64
	DuplicateFrames float64
	Speed           float64
	Done            bool // progress=end
}

// ProgressParser accumulates key=value lines and reports a Progress at every
// progress= terminator.
type ProgressParser struct {
	mu     sync.Mutex
	data   map[string]string
	report func(Progress)
}

// NewProgressParser returns a parser that calls report once per block.
func NewProgressParser(report func(Progress)) *ProgressParser {
	return &ProgressParser{data: make(map[string]string), report: report}
}

// HandleLine consumes one line of stdout. Lines from other sources are ignored.
func (p *ProgressParser) HandleLine(source, line string) {
	if source != "stdout" {
		return
	}
	key, value, ok := splitProgressLine(line)
	if !ok {
		return
	}

	p.mu.Lock()
	p.data[key] = value
	if key != "progress" {
		p.mu.Unlock()
		return
	}
	data := p.data
	p.data = make(map[string]string)
	p.mu.Unlock()

	if p.report != nil {
		p.report(progressFromData(data))
	}
}

// IsProgressLine reports whether line looks like -progress output.
func IsProgressLine(line string) bool {
	_, _, ok := splitProgressLine(line)
	return ok
}

func splitProgressLine(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	key, value, ok = strings.Cut(line, "=")
	if !ok || key == "" || strings.ContainsAny(key, " []") {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func progressFromData(data map[string]string) Progress {
	var pr Progress
	if frame, err := strconv.ParseInt(data["frame"], 10, 64); err == nil {
		pr.Frame = frame
	}
	if fps, err := strconv.ParseFloat(data["fps"], 64); err == nil {
		pr.FPS = fps
	}
	if dropped, err := strconv.ParseFloat(data["drop_frames"], 64); err == nil {
		pr.DroppedFrames = dropped
	}
	if dup, err := strconv.ParseFloat(data["dup_frames"], 64); err == nil {
		pr.DuplicateFrames = dup
	}
	speedStr := strings.TrimSuffix(data["speed"], "x")
	if speed, err := strconv.ParseFloat(strings.TrimSpace(speedStr), 64); err == nil {
		pr.Speed = speed
	}
	pr.Done = data["progress"] == "end"
	return pr
}
