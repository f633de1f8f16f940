package ui

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Progress counts finished images, drawing a bar when one is attached.
type Progress struct {
	bar  *progressbar.ProgressBar
	done atomic.Int64
}

// NewProgress draws to stderr unless the default console is quiet.
func NewProgress(total int, description string) *Progress {
	if IsQuiet() || total <= 0 {
		return &Progress{}
	}
	return NewProgressTo(os.Stderr, total, description)
}

// NewProgressTo draws the bar to w.
func NewProgressTo(w io.Writer, total int, description string) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Progress{bar: bar}
}

// Add advances the bar by n.
func (p *Progress) Add(n int) {
	if p == nil {
		return
	}
	p.done.Add(int64(n))
	if p.bar != nil {
		_ = p.bar.Add(n)
	}
}

// Finish completes and clears the bar.
func (p *Progress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

// Current is the number of images counted so far.
func (p *Progress) Current() int64 {
	if p == nil {
		return 0
	}
	return p.done.Load()
}
