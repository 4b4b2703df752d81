package spantree

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

const (
	durationWidth = 9
	countWidth    = 8
)

var blankCount = strings.Repeat(" ", countWidth)

type renderer struct {
	sink         Sink
	bold         *color.Color // nil when the destination is not styled
	maxNameWidth int
}

func newRenderer(sink Sink, mode ColorMode, maxNameWidth int) *renderer {
	r := &renderer{sink: sink, maxNameWidth: maxNameWidth}
	if mode.Styled(sink.MakeWriter()) {
		r.bold = color.New(color.Bold)
		// The package-level NoColor guess looks at stdout, not at our sink.
		r.bold.EnableColor()
	}
	return r
}

// render prints n and its subtree, one sink write per line, followed by an
// empty separator line. Write errors are ignored.
func (r *renderer) render(n *Node) {
	r.walk(n, 0)
}

func (r *renderer) walk(n *Node, level int) {
	r.write(r.line(n, level))
	for _, child := range n.Children {
		r.walk(child, level+1)
	}
	if level == 0 {
		r.write("\n")
	}
}

func (r *renderer) write(s string) {
	// Best-effort write - losing profile output beats crashing the host
	_, _ = io.WriteString(r.sink.MakeWriter(), s) //nolint:errcheck
}

// line renders: indent, duration column, count column, name.
func (r *renderer) line(n *Node, level int) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", 2*level))
	fmt.Fprintf(&sb, "%-*s", durationWidth, " "+formatDuration(n.Duration)+" ")
	if n.Count > 1 {
		fmt.Fprintf(&sb, " %-*d ", countWidth-2, n.Count)
	} else {
		sb.WriteString(blankCount)
	}
	sb.WriteString(r.name(n.Name))
	sb.WriteByte('\n')
	return sb.String()
}

func (r *renderer) name(name string) string {
	if r.maxNameWidth > 0 && runewidth.StringWidth(name) > r.maxNameWidth {
		name = runewidth.Truncate(name, r.maxNameWidth, "…")
	}
	if r.bold == nil {
		return name
	}
	return r.bold.Sprint(name)
}

// formatDuration prints d with two fractional digits in the largest unit
// that keeps the integer part non-zero: 8.37ms, 1.50s, 150.00ns.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%.2fns", float64(d))
	}
}
