package process

import (
	"strings"
	"sync"
)

// Tail keeps the most recent output lines of a process.
type Tail struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewTail creates a Tail holding up to size lines.
func NewTail(size int) *Tail {
	if size < 1 {
		size = 1
	}
	return &Tail{lines: make([]string, size)}
}

// HandleLine implements OutputHandler.
func (t *Tail) HandleLine(_, line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines[t.next] = line
	t.next = (t.next + 1) % len(t.lines)
	if t.next == 0 {
		t.full = true
	}
}

// Lines returns the retained lines, oldest first.
func (t *Tail) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return append([]string(nil), t.lines[:t.next]...)
	}
	out := make([]string, 0, len(t.lines))
	out = append(out, t.lines[t.next:]...)
	return append(out, t.lines[:t.next]...)
}

// String joins the retained lines with newlines.
func (t *Tail) String() string {
	return strings.Join(t.Lines(), "\n")
}

// Reset discards all retained lines.
func (t *Tail) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.lines)
	t.next = 0
	t.full = false
}
