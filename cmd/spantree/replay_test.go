package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	core "spantree/internal/spantree"
	"spantree/internal/trace"
)

var dumpEpoch = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

func dumpEvent(kind trace.Kind, id, parent uint64, name string, offset time.Duration) trace.Event {
	return trace.Event{
		Time:     dumpEpoch.Add(offset),
		Kind:     kind,
		Level:    trace.LevelInfo,
		SpanID:   id,
		ParentID: parent,
		Name:     name,
	}
}

// demoDump is top_level with two middles, each holding one leaf.
func demoDump() []trace.Event {
	ms := time.Millisecond
	return []trace.Event{
		dumpEvent(trace.KindSpanBegin, 1, 0, "top_level", 0),
		dumpEvent(trace.KindSpanBegin, 2, 1, "middle", 0),
		dumpEvent(trace.KindSpanBegin, 3, 2, "leaf", 0),
		dumpEvent(trace.KindSpanEnd, 3, 0, "leaf", ms),
		dumpEvent(trace.KindSpanEnd, 2, 0, "middle", 2*ms),
		dumpEvent(trace.KindPoint, 0, 1, "between", 2*ms),
		dumpEvent(trace.KindSpanBegin, 4, 1, "middle", 2*ms),
		dumpEvent(trace.KindSpanBegin, 5, 4, "leaf", 2*ms),
		dumpEvent(trace.KindSpanEnd, 5, 0, "leaf", 3500*time.Microsecond),
		dumpEvent(trace.KindSpanEnd, 4, 0, "middle", 4*ms),
		dumpEvent(trace.KindSpanEnd, 1, 0, "top_level", 5*ms),
	}
}

func encodeDump(events []trace.Event, format trace.Format) *bytes.Buffer {
	var buf bytes.Buffer
	st := trace.NewStreamTracer(&buf, trace.LevelTrace, format)
	for i := range events {
		st.Emit(&events[i])
	}
	return &buf
}

const aggregatedDemo = "" +
	" 5.00ms          top_level\n" +
	"   4.00ms   2      middle\n" +
	"     2.50ms   2      leaf\n" +
	"\n"

func TestReplayFormats(t *testing.T) {
	for _, format := range []trace.Format{trace.FormatNDJSON, trace.FormatMsgpack} {
		t.Run(format.String(), func(t *testing.T) {
			var out bytes.Buffer
			cfg := core.Config{Aggregate: true, Sink: core.WriterSink(&out), Color: core.ColorNever}
			open, err := replay(encodeDump(demoDump(), format), format, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if open != 0 {
				t.Fatalf("open spans = %d", open)
			}
			if out.String() != aggregatedDemo {
				t.Fatalf("output:\n%q\nwant\n%q", out.String(), aggregatedDemo)
			}
		})
	}
}

func TestReplayCountsUnfinishedSpans(t *testing.T) {
	events := demoDump()[:5]
	var out bytes.Buffer
	open, err := replay(encodeDump(events, trace.FormatNDJSON), trace.FormatNDJSON,
		core.Config{Sink: core.WriterSink(&out), Color: core.ColorNever})
	if err != nil {
		t.Fatal(err)
	}
	if open != 1 || out.Len() != 0 {
		t.Fatalf("open = %d, output %q; want one open root and no output", open, out.String())
	}
}

func TestReplayInconsistentDump(t *testing.T) {
	// A ring buffer that wrapped lost the begin of span 1.
	events := demoDump()[1:]
	_, err := replay(encodeDump(events, trace.FormatNDJSON), trace.FormatNDJSON,
		core.Config{Sink: core.WriterSink(&bytes.Buffer{}), Color: core.ColorNever})
	if err == nil || !strings.Contains(err.Error(), "inconsistent dump") {
		t.Fatalf("err = %v, want inconsistent dump", err)
	}
}

func TestReplayFileRejectsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := os.WriteFile(path, encodeDump(demoDump(), trace.FormatText).Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := replayFile(path, core.Config{}); err == nil || !strings.Contains(err.Error(), "unsupported dump format") {
		t.Fatalf("err = %v", err)
	}
}

func TestReplayFileReadsMsgpack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.msgpack")
	if err := os.WriteFile(path, encodeDump(demoDump(), trace.FormatMsgpack).Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	open, err := replayFile(path, core.Config{Aggregate: true, Sink: core.WriterSink(&out), Color: core.ColorNever})
	if err != nil || open != 0 {
		t.Fatalf("replayFile = %d, %v", open, err)
	}
	if out.String() != aggregatedDemo {
		t.Fatalf("output %q", out.String())
	}
}
