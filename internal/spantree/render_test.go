package spantree

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// middleTree is top_level with two middles, each holding one leaf.
func middleTree() *Node {
	return withChildren(leafNode("top_level", 5*time.Millisecond),
		withChildren(leafNode("middle", 2*time.Millisecond), leafNode("leaf", time.Millisecond)),
		withChildren(leafNode("middle", 2*time.Millisecond), leafNode("leaf", 1500*time.Microsecond)),
	)
}

func renderString(n *Node, mode ColorMode, width int) string {
	var buf bytes.Buffer
	newRenderer(WriterSink(&buf), mode, width).render(n)
	return buf.String()
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0.00ns"},
		{150 * time.Nanosecond, "150.00ns"},
		{1500 * time.Nanosecond, "1.50µs"},
		{8370 * time.Microsecond, "8.37ms"},
		{1500 * time.Millisecond, "1.50s"},
		{90 * time.Second, "90.00s"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderUnaggregated(t *testing.T) {
	got := renderString(middleTree(), ColorNever, 0)
	want := "" +
		" 5.00ms          top_level\n" +
		"   2.00ms          middle\n" +
		"     1.00ms          leaf\n" +
		"   2.00ms          middle\n" +
		"     1.50ms          leaf\n" +
		"\n"
	if got != want {
		t.Fatalf("render mismatch:\n%q\nwant\n%q", got, want)
	}
}

func TestRenderAggregated(t *testing.T) {
	root := middleTree()
	root.Aggregate()
	got := renderString(root, ColorNever, 0)
	want := "" +
		" 5.00ms          top_level\n" +
		"   4.00ms   2      middle\n" +
		"     2.50ms   2      leaf\n" +
		"\n"
	if got != want {
		t.Fatalf("render mismatch:\n%q\nwant\n%q", got, want)
	}
}

func TestRenderIndentationGrowsWithDepth(t *testing.T) {
	lines := strings.Split(renderString(middleTree(), ColorNever, 0), "\n")
	indent := func(s string) int { return len(s) - len(strings.TrimLeft(s, " ")) }
	depths := []int{0, 1, 2, 1, 2}
	for i, depth := range depths {
		if got, want := indent(lines[i]), 2*depth+1; got != want {
			t.Errorf("line %d %q: indent %d, want %d", i, lines[i], got, want)
		}
	}
	if lines[len(depths)] != "" {
		t.Errorf("missing blank separator line, got %q", lines[len(depths)])
	}
}

func TestRenderCountColumn(t *testing.T) {
	r := newRenderer(WriterSink(io.Discard), ColorNever, 0)

	single := r.line(leafNode("once", time.Millisecond), 0)
	if strings.ContainsAny(strings.TrimSuffix(single, "once\n")[len(" 1.00ms"):], "0123456789") {
		t.Fatalf("count column not blank for count 1: %q", single)
	}

	merged := leafNode("many", time.Millisecond)
	merged.Count = 12
	line := r.line(merged, 0)
	if !strings.Contains(line, " 12     many") {
		t.Fatalf("count missing from %q", line)
	}
	if len(line) != len(single) {
		t.Fatalf("count column width differs: %q vs %q", line, single)
	}
}

func TestRenderStyling(t *testing.T) {
	styled := renderString(leafNode("bold_me", time.Millisecond), ColorAlways, 0)
	if !strings.Contains(styled, "\x1b[1m") || !strings.Contains(styled, "bold_me") {
		t.Fatalf("expected bold escape in %q", styled)
	}

	// A buffer is never a terminal.
	plain := renderString(leafNode("bold_me", time.Millisecond), ColorAuto, 0)
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("unexpected escape codes for non-terminal sink: %q", plain)
	}
}

func TestRenderTruncatesNames(t *testing.T) {
	out := renderString(leafNode("very_long_span_name", time.Millisecond), ColorNever, 8)
	if !strings.Contains(out, "very_lo…\n") {
		t.Fatalf("name not truncated: %q", out)
	}
	short := renderString(leafNode("short", time.Millisecond), ColorNever, 8)
	if !strings.Contains(short, "short\n") {
		t.Fatalf("short name changed: %q", short)
	}
}

type failingWriter struct{ calls int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("broken pipe")
}

func TestRenderKeepsGoingAfterWriteErrors(t *testing.T) {
	w := &failingWriter{}
	newRenderer(WriterSink(w), ColorNever, 0).render(middleTree())
	if w.calls != 6 {
		t.Fatalf("writes attempted = %d, want 6 (5 lines + separator)", w.calls)
	}
}

func TestSinkWriterRequestedPerLine(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	sink := SinkFunc(func() io.Writer {
		calls++
		return &buf
	})
	newRenderer(sink, ColorNever, 0).render(middleTree())
	// One probe for styling plus one per written line.
	if calls != 7 {
		t.Fatalf("MakeWriter calls = %d, want 7", calls)
	}
}

func TestParseColorMode(t *testing.T) {
	cases := map[string]ColorMode{"": ColorAuto, "auto": ColorAuto, "on": ColorAlways, "ALWAYS": ColorAlways, "off": ColorNever}
	for in, want := range cases {
		got, err := ParseColorMode(in)
		if err != nil || got != want {
			t.Errorf("ParseColorMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
