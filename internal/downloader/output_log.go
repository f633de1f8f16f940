package downloader

import "sync"

// Per-item line prefixes. Each is followed by the image's display name.
const (
	LineSaved          = "Image saved: "
	LineCopied         = "Image copied: "
	LineSkipped        = "Image skipped: "
	LineDownloadFailed = "Unable to download image: "
	LineIOFailure      = "IO Failure - Error occured while saving image: "
)

// OutputLog is an append-only list of user facing lines, in the order they
// were written. Safe for concurrent use.
type OutputLog struct {
	mu     sync.Mutex
	lines  []string
	onLine func(string)
}

func NewOutputLog() *OutputLog {
	return &OutputLog{}
}

// NewOutputLogFunc returns a log that also passes every line to fn, in
// order, while holding the log's lock.
func NewOutputLogFunc(fn func(string)) *OutputLog {
	return &OutputLog{onLine: fn}
}

func (l *OutputLog) Add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	if l.onLine != nil {
		l.onLine(line)
	}
}

// Lines returns a copy of everything written so far.
func (l *OutputLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func (l *OutputLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}
