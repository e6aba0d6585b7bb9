package adapter

import (
	"bytes"
	"strings"
	"sync"
)

// DefaultTailLines is how much tool stderr is kept for error reports.
const DefaultTailLines = 20

// Tail is an io.Writer that keeps only the last N lines written to it.
// It is used as cmd.Stderr so failing tools can be reported with context.
type Tail struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial bytes.Buffer
}

// NewTail keeps up to max lines (DefaultTailLines when max <= 0).
func NewTail(max int) *Tail {
	if max <= 0 {
		max = DefaultTailLines
	}
	return &Tail{max: max}
}

func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial.Write(p)
	for {
		data := t.partial.Bytes()
		idx := bytes.IndexAny(data, "\r\n")
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(data[:idx]))
		t.partial.Next(idx + 1)
		if line != "" {
			t.push(line)
		}
	}
	return len(p), nil
}

func (t *Tail) push(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

// String returns the retained lines, including an unterminated last line.
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := append([]string(nil), t.lines...)
	if rest := strings.TrimSpace(t.partial.String()); rest != "" {
		lines = append(lines, rest)
	}
	return strings.Join(lines, "\n")
}
