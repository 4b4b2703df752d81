package trace

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func sampleEvents() []Event {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.UTC)
	return []Event{
		{Time: ts, Seq: 1, Kind: KindSpanBegin, Level: LevelInfo, SpanID: 10, GID: 1, Name: "parse", Target: "app/parser", File: "parser.go", Line: 42},
		{Time: ts.Add(time.Millisecond), Seq: 2, Kind: KindPoint, Level: LevelDebug, ParentID: 10, Name: "token", Extra: map[string]string{"kind": "ident"}},
		{Time: ts.Add(2 * time.Millisecond), Seq: 3, Kind: KindSpanEnd, Level: LevelInfo, SpanID: 10, Name: "parse", Detail: "ok"},
	}
}

func roundTrip(t *testing.T, format Format) []Event {
	t.Helper()
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelTrace, format)
	events := sampleEvents()
	for i := range events {
		st.Emit(&events[i])
	}

	dec, err := NewDecoder(&buf, format)
	if err != nil {
		t.Fatal(err)
	}
	var out []Event
	for {
		var ev Event
		if err := dec.Next(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("decode: %v", err)
		}
		out = append(out, ev)
	}
	return out
}

func assertSameEvents(t *testing.T, got, want []Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("decoded %d events, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if !g.Time.Equal(w.Time) {
			t.Errorf("event %d: time %v, want %v", i, g.Time, w.Time)
		}
		if g.Seq != w.Seq || g.Kind != w.Kind || g.Level != w.Level || g.SpanID != w.SpanID ||
			g.ParentID != w.ParentID || g.GID != w.GID || g.Name != w.Name || g.Target != w.Target ||
			g.File != w.File || g.Line != w.Line || g.Detail != w.Detail {
			t.Errorf("event %d: got %+v, want %+v", i, g, w)
		}
		if len(g.Extra) != len(w.Extra) {
			t.Errorf("event %d: extra %v, want %v", i, g.Extra, w.Extra)
		}
		for k, v := range w.Extra {
			if g.Extra[k] != v {
				t.Errorf("event %d: extra[%s] = %q, want %q", i, k, g.Extra[k], v)
			}
		}
	}
}

func TestNDJSONRoundTrip(t *testing.T) {
	assertSameEvents(t, roundTrip(t, FormatNDJSON), sampleEvents())
}

func TestMsgpackRoundTrip(t *testing.T) {
	assertSameEvents(t, roundTrip(t, FormatMsgpack), sampleEvents())
}

func TestDecoderRejectsText(t *testing.T) {
	if _, err := NewDecoder(strings.NewReader(""), FormatText); err == nil {
		t.Fatalf("text dumps must not be decodable")
	}
}

func TestDecoderReportsBadEvents(t *testing.T) {
	dump := `{"time":"2026-03-04T05:06:07.000000000Z","seq":1,"kind":"begin","level":"info","name":"a"}
{"time":"2026-03-04T05:06:07.000000000Z","seq":2,"kind":"explode","level":"info","name":"b"}
`
	dec, err := NewDecoder(strings.NewReader(dump), FormatNDJSON)
	if err != nil {
		t.Fatal(err)
	}
	var ev Event
	if err := dec.Next(&ev); err != nil {
		t.Fatalf("first event: %v", err)
	}
	err = dec.Next(&ev)
	if err == nil || !strings.Contains(err.Error(), "event 2") {
		t.Fatalf("expected error for event 2, got %v", err)
	}
}

func TestFormatForPath(t *testing.T) {
	cases := map[string]Format{
		"trace.ndjson":  FormatNDJSON,
		"trace.jsonl":   FormatNDJSON,
		"trace.msgpack": FormatMsgpack,
		"out/trace.mp":  FormatMsgpack,
		"-":             FormatText,
		"trace.txt":     FormatText,
		"":              FormatText,
	}
	for path, want := range cases {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestFormatText(t *testing.T) {
	ev := sampleEvents()[1]
	ev.Extra["at"] = "3"
	got := string(FormatEvent(&ev, FormatText))
	want := "[      2]   • token {at=3, kind=ident}\n"
	if got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
}

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelInfo, FormatNDJSON)
	events := sampleEvents()
	for i := range events {
		st.Emit(&events[i])
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Fatalf("lines = %d, want 2 (debug point filtered)", n)
	}
}
