package spantree

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Sink hands out a writer for every rendered line.
type Sink interface {
	MakeWriter() io.Writer
}

// SinkFunc adapts a function to Sink.
type SinkFunc func() io.Writer

// MakeWriter calls f.
func (f SinkFunc) MakeWriter() io.Writer { return f() }

// Stderr writes to os.Stderr.
func Stderr() Sink { return SinkFunc(func() io.Writer { return os.Stderr }) }

// Stdout writes to os.Stdout.
func Stdout() Sink { return SinkFunc(func() io.Writer { return os.Stdout }) }

// WriterSink writes every line to w.
func WriterSink(w io.Writer) Sink { return SinkFunc(func() io.Writer { return w }) }

// ColorMode controls whether span names are emphasised.
type ColorMode uint8

const (
	ColorAuto   ColorMode = iota // style only interactive terminals
	ColorAlways                  // style regardless of the destination
	ColorNever                   // never style
)

// String returns the string representation of ColorMode.
func (m ColorMode) String() string {
	switch m {
	case ColorAuto:
		return "auto"
	case ColorAlways:
		return "on"
	case ColorNever:
		return "off"
	default:
		return "unknown"
	}
}

// ParseColorMode accepts the values of the --color flag.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always", "true":
		return ColorAlways, nil
	case "off", "never", "false":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", s)
	}
}

// Styled reports whether output going to w should carry emphasis.
func (m ColorMode) Styled(w io.Writer) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal(w)
	}
}

// isTerminal recognises writers backed by an interactive terminal.
// Files, pipes and in-memory buffers are not.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
