package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"imagegrab/internal/downloader"
)

// LineView renders pipeline output lines as they arrive. A framing line
// ("Starting download of N images.") opens a progress bar sized N, every
// per-image line advances it and the closing "... finished." line clears it.
type LineView struct {
	mu       sync.Mutex
	console  *Console
	progress *Progress
	barOut   io.Writer
	counts   map[string]int
}

// NewLineView prints through the default console and draws bars on stderr.
// barOut may be nil to disable the bar.
func NewLineView(console *Console, barOut io.Writer) *LineView {
	if console == nil {
		console = std
	}
	return &LineView{console: console, barOut: barOut, counts: make(map[string]int)}
}

// Add is the sink handed to downloader.NewOutputLogFunc.
func (v *LineView) Add(line string) {
	v.console.LogLine(line)

	v.mu.Lock()
	defer v.mu.Unlock()

	if n, ok := startCount(line); ok {
		if v.barOut != nil && !v.console.Quiet() && n > 0 {
			v.progress = NewProgressTo(v.barOut, n, "downloading")
		} else {
			v.progress = &Progress{}
		}
		return
	}
	if strings.HasSuffix(line, " finished.") {
		v.progress.Finish()
		return
	}
	if kind := lineKind(line); kind != "" {
		v.counts[kind]++
		v.progress.Add(1)
	}
}

// Count is the number of lines seen of one kind: "saved", "skipped" or
// "failed".
func (v *LineView) Count(kind string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counts[kind]
}

func startCount(line string) (int, bool) {
	var n int
	for _, format := range []string{"Starting download of %d images.", "Starting filtering of %d images."} {
		if _, err := fmt.Sscanf(line, format, &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func lineKind(line string) string {
	switch {
	case strings.HasPrefix(line, downloader.LineSaved), strings.HasPrefix(line, downloader.LineCopied):
		return "saved"
	case strings.HasPrefix(line, downloader.LineSkipped):
		return "skipped"
	case strings.HasPrefix(line, downloader.LineDownloadFailed), strings.HasPrefix(line, downloader.LineIOFailure):
		return "failed"
	}
	return ""
}
