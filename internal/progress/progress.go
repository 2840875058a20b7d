package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Bar draws the digest progress of a run on a terminal line.
type Bar struct {
	total      int64
	current    int64
	failed     int64
	width      int
	writer     io.Writer
	mu         sync.Mutex
	currentDir string
	enabled    bool
	lastUpdate time.Time
}

// New returns a bar writing to w. A nil w means stderr, and the bar stays
// silent when stderr is not a terminal.
func New(w io.Writer) *Bar {
	enabled := true
	if w == nil {
		w = os.Stderr
		enabled = isTerminal(os.Stderr)
	}
	return &Bar{
		width:   40,
		writer:  w,
		enabled: enabled,
	}
}

func isTerminal(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	// Check if the file is a terminal (character device)
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Start resets the bar for a run digesting files.
func (b *Bar) Start(files int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total = int64(files)
	b.current = 0
	b.failed = 0
	b.currentDir = ""
	b.lastUpdate = time.Now()
}

// Advance records one finished file.
func (b *Bar) Advance(path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	if err != nil {
		b.failed++
	}
	b.currentDir = filepath.Dir(path)

	if !b.enabled {
		return
	}

	// Update at most every 100ms to reduce flickering
	now := time.Now()
	if now.Sub(b.lastUpdate) > 100*time.Millisecond || b.current == b.total {
		b.lastUpdate = now
		b.render()
	}
}

// render must be called with mu already locked
func (b *Bar) render() {
	if b.total == 0 {
		return
	}

	percent := float64(b.current) / float64(b.total) * 100
	filledWidth := int(float64(b.width) * float64(b.current) / float64(b.total))

	if filledWidth > b.width {
		filledWidth = b.width
	}

	bar := strings.Repeat("#", filledWidth) + strings.Repeat("-", b.width-filledWidth)

	var dirDisplay string
	if b.currentDir != "" {
		dirDisplay = " | " + filepath.Base(b.currentDir)
	}
	var failDisplay string
	if b.failed > 0 {
		failDisplay = fmt.Sprintf(" (%d failed)", b.failed)
	}

	// Clear the line and write progress
	fmt.Fprintf(b.writer, "\r\033[KCalculating hashes: [%s] %3d%% (%d/%d)%s%s",
		bar, int(percent), b.current, b.total, failDisplay, dirDisplay)
}

// Finish draws the final state and ends the line.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.enabled || b.total == 0 {
		return
	}

	b.currentDir = ""
	b.render()
	fmt.Fprintf(b.writer, "\n")
}

// Done returns the number of files finished so far and how many of them
// failed.
func (b *Bar) Done() (current, failed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.failed
}
