// Package cli provides colored status output for the command-line tools.
package cli

import (
	"fmt"
	"io"
	"os"
)

// Color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// Printer writes status lines, colored when the destination is a terminal.
type Printer struct {
	w        io.Writer
	colorize bool
}

// NewPrinter returns a Printer for w. Color is enabled only when w is a
// terminal.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, colorize: isTerminal(w)}
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(ColorGreen, "✓", format, args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(ColorRed, "✗", format, args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	p.line(ColorYellow, "⚠", format, args...)
}

// Info prints an info message
func (p *Printer) Info(format string, args ...interface{}) {
	p.line(ColorBlue, "ℹ", format, args...)
}

func (p *Printer) line(color, symbol, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if p.colorize {
		fmt.Fprintf(p.w, "%s%s%s %s\n", color, symbol, ColorReset, msg)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", symbol, msg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
