package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"imagegrab/internal/downloader"
)

// Console writes coloured status lines. Colour is dropped when the output is
// not a terminal, and everything but errors is dropped in quiet mode.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	quiet bool
}

// NewConsole writes to out. Colour is enabled when out is a terminal.
func NewConsole(out io.Writer, quiet bool) *Console {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Console{out: out, color: color, quiet: quiet}
}

var std = NewConsole(os.Stdout, false)

// SetQuiet toggles quiet mode on the default console.
func SetQuiet(quiet bool) {
	std.mu.Lock()
	std.quiet = quiet
	std.mu.Unlock()
}

// Quiet reports whether c drops non-error output.
func (c *Console) Quiet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiet
}

// IsQuiet reports whether the default console is quiet.
func IsQuiet() bool {
	return std.Quiet()
}

const (
	codeCyan    = "36"
	codeYellow  = "33"
	codeRed     = "31"
	codeGreen   = "32"
	codeMagenta = "35"
	codeDim     = "2"
)

func (c *Console) paint(code, text string) string {
	if !c.color {
		return text
	}
	return "\033[" + code + "m" + text + "\033[0m"
}

func (c *Console) println(always bool, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quiet && !always {
		return
	}
	fmt.Fprintln(c.out, text)
}

func withDetail(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}

// Error prints msg in red, followed by the first arg when given. Errors are
// printed in quiet mode too.
func (c *Console) Error(msg string, args ...interface{}) {
	c.println(true, c.paint(codeRed, withDetail(msg, args)))
}

func (c *Console) Warning(msg string, args ...interface{}) {
	c.println(false, c.paint(codeYellow, withDetail(msg, args)))
}

func (c *Console) Success(msg string) {
	c.println(false, c.paint(codeGreen, msg))
}

// Info prints "label: value".
func (c *Console) Info(label, value string) {
	c.println(false, c.paint(codeCyan, label)+": "+c.paint(codeYellow, value))
}

func (c *Console) Highlight(msg string) {
	c.println(false, c.paint(codeMagenta, msg))
}

// LogLine prints one pipeline output line, coloured by outcome.
func (c *Console) LogLine(line string) {
	switch {
	case strings.HasPrefix(line, downloader.LineSaved), strings.HasPrefix(line, downloader.LineCopied):
		c.println(false, c.paint(codeGreen, line))
	case strings.HasPrefix(line, downloader.LineSkipped):
		c.println(false, c.paint(codeDim, line))
	case strings.HasPrefix(line, downloader.LineDownloadFailed), strings.HasPrefix(line, downloader.LineIOFailure):
		c.println(true, c.paint(codeRed, line))
	default:
		c.println(false, c.paint(codeCyan, line))
	}
}

func PrintError(msg string, args ...interface{})   { std.Error(msg, args...) }
func PrintWarning(msg string, args ...interface{}) { std.Warning(msg, args...) }
func PrintSuccess(msg string)                      { std.Success(msg) }
func PrintInfo(label, value string)                { std.Info(label, value) }
func PrintHighlight(msg string)                    { std.Highlight(msg) }
func PrintLogLine(line string)                     { std.LogLine(line) }
