package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolePlainOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Info("Output", "/tmp/out")
	c.Error("failed", errors.New("boom"))
	c.Success("done")

	assert.Equal(t, "Output: /tmp/out\nfailed: boom\ndone\n", buf.String())
	assert.NotContains(t, buf.String(), "\033[")
}

func TestConsoleQuietKeepsErrors(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.Info("a", "b")
	c.Warning("careful")
	c.LogLine("Image saved: a.jpg")
	c.LogLine("Unable to download image: b.jpg")
	c.Error("broken")

	assert.Equal(t, "Unable to download image: b.jpg\nbroken\n", buf.String())
}

type recordingSender struct {
	title, message string
}

func (r *recordingSender) Send(title, message string) error {
	r.title, r.message = title, message
	return nil
}

func TestNotifierRunFinished(t *testing.T) {
	s := &recordingSender{}
	require.NoError(t, NewNotifierWith(s).RunFinished("r/pics", 3, 1, 2))
	assert.Equal(t, "imagegrab: r/pics", s.title)
	assert.Equal(t, "3 saved, 1 skipped, 2 failed", s.message)

	assert.NoError(t, NewNotifierWith(nil).RunFinished("x", 0, 0, 0))
}

func TestLineViewCountsAndBar(t *testing.T) {
	var out, bar bytes.Buffer
	v := NewLineView(NewConsole(&out, false), &bar)

	lines := []string{
		"Starting download of 3 images.",
		"Image saved: a.jpg",
		"Image skipped: b.jpg",
		"IO Failure - Error occured while saving image: c.jpg",
		"Download finished.",
	}
	for _, l := range lines {
		v.Add(l)
	}

	assert.Equal(t, strings.Join(lines, "\n")+"\n", out.String())
	assert.Equal(t, 1, v.Count("saved"))
	assert.Equal(t, 1, v.Count("skipped"))
	assert.Equal(t, 1, v.Count("failed"))
	assert.EqualValues(t, 3, v.progress.Current())
	assert.NotEmpty(t, bar.String())
}

func TestLineViewWithoutStartLine(t *testing.T) {
	var out bytes.Buffer
	v := NewLineView(NewConsole(&out, false), nil)

	v.Add("Image copied: a.png")
	v.Add("Filtering finished.")
	assert.Equal(t, 1, v.Count("saved"))
}

func TestStartCount(t *testing.T) {
	n, ok := startCount("Starting filtering of 12 images.")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = startCount("Image saved: Starting download of 3 images.")
	assert.False(t, ok)
}

func TestProgressNilSafe(t *testing.T) {
	var p *Progress
	p.Add(1)
	p.Finish()
	assert.Zero(t, p.Current())
}
