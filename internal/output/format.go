// Package output renders keyfold command results as text or JSON.
package output

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format selects how command results are rendered.
type Format string

const (
	// FormatText renders human-readable output.
	FormatText Format = "text"
	// FormatJSON renders machine-readable JSON.
	FormatJSON Format = "json"
	// FormatAuto resolves to text on a terminal and JSON elsewhere.
	FormatAuto Format = "auto"
)

// ParseFormat maps a user-supplied format name to a Format. Unknown
// values resolve to FormatAuto.
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case string(FormatJSON):
		return FormatJSON
	case string(FormatText):
		return FormatText
	default:
		return FormatAuto
	}
}

// DetectFormat resolves FormatAuto against the writer: text when w is a
// terminal, JSON otherwise. Explicit formats pass through unchanged.
func DetectFormat(w io.Writer, want Format) Format {
	if want != FormatAuto {
		return want
	}
	if file, ok := w.(*os.File); ok {
		if term.IsTerminal(int(file.Fd())) { //nolint:gosec // G115: Fd fits in int on supported platforms
			return FormatText
		}
	}
	return FormatJSON
}

// Formatter carries the output format resolved once at startup so every
// command renders consistently.
type Formatter struct {
	format Format
}

// NewFormatter returns a formatter for the given resolved format.
func NewFormatter(format Format) *Formatter {
	return &Formatter{format: format}
}

// Format returns the resolved output format.
func (fm *Formatter) Format() Format {
	return fm.format
}
