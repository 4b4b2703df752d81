package trace

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns the next process-wide event sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a fresh span ID. IDs start at 1; 0 means "no span".
func NextSpanID() uint64 { return spanCounter.Add(1) }

var goroutinePrefix = []byte("goroutine ")

// getGoroutineID parses the header of runtime.Stack ("goroutine 123 [running]:").
// It returns 0 if the header is not in that shape.
func getGoroutineID() uint64 {
	var buf [64]byte
	header, ok := bytes.CutPrefix(buf[:runtime.Stack(buf[:], false)], goroutinePrefix)
	if !ok {
		return 0
	}
	digits, _, _ := bytes.Cut(header, []byte{' '})
	gid, err := strconv.ParseUint(string(digits), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// callSite resolves the file, line and package of the caller skip frames up.
func callSite(skip int) (file string, line int, target string) {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "", 0, ""
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		target = packageOf(fn.Name())
	}
	return file, line, target
}

// packageOf trims a fully qualified function name such as
// "spantree/internal/driver.(*Loader).Run" down to "spantree/internal/driver".
func packageOf(funcName string) string {
	if i := strings.IndexByte(funcName, '['); i >= 0 {
		funcName = funcName[:i]
	}
	slash := strings.LastIndexByte(funcName, '/')
	if dot := strings.IndexByte(funcName[slash+1:], '.'); dot >= 0 {
		return funcName[:slash+1+dot]
	}
	return funcName
}

// Span is an open span. End it exactly once; extra calls are ignored.
// A Span whose ID is 0 was filtered out and emits nothing.
type Span struct {
	tracer Tracer
	begin  Event
	extra  map[string]string
	ended  atomic.Bool
}

// Begin emits a begin event for a span under parent (0 for a root) and
// returns the span.
func Begin(t Tracer, level Level, name string, parent uint64) *Span {
	file, line, target := callSite(1)
	return begin(t, Event{Level: level, Name: name, ParentID: parent, File: file, Line: line, Target: target})
}

// Start opens a span on the tracer carried by ctx (or the global tracer) and
// returns a context in which it is the current span. A span filtered out by
// level returns ctx unchanged, so nested spans attach to the nearest emitted
// ancestor.
func Start(ctx context.Context, level Level, name string) (context.Context, *Span) {
	return StartDepth(ctx, 1, level, name)
}

// StartDepth is Start for wrappers: depth extra frames are skipped when
// recording the call site.
func StartDepth(ctx context.Context, depth int, level Level, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	file, line, target := callSite(depth + 1)
	span := begin(FromContext(ctx), Event{
		Level:    level,
		Name:     name,
		ParentID: CurrentSpan(ctx).SpanID,
		File:     file,
		Line:     line,
		Target:   target,
	})
	if span.ID() == 0 {
		return ctx, span
	}
	return WithSpanContext(ctx, SpanContext{SpanID: span.begin.SpanID, GID: span.begin.GID}), span
}

// begin fills in identity and timing on proto and emits it.
func begin(t Tracer, proto Event) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(proto.Level) {
		return &Span{tracer: Nop}
	}
	proto.Kind = KindSpanBegin
	proto.SpanID = NextSpanID()
	proto.GID = getGoroutineID()
	proto.Seq = NextSeq()
	proto.Time = time.Now()
	t.Emit(&proto)
	return &Span{tracer: t, begin: proto}
}

// End emits the end event and returns the span's duration. Only the first
// call emits; later calls, and calls on filtered spans, return 0.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.begin.SpanID == 0 || !s.ended.CompareAndSwap(false, true) {
		return 0
	}
	ev := s.begin
	ev.Kind = KindSpanEnd
	ev.Seq = NextSeq()
	ev.Time = time.Now()
	ev.Detail = detail
	ev.Extra = s.extra
	s.tracer.Emit(&ev)
	return ev.Time.Sub(s.begin.Time)
}

// WithExtra adds a key-value pair to the end event.
// Returns the span for method chaining.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.begin.SpanID == 0 {
		return s
	}

	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.begin.SpanID
}

// Point emits an instant event inside the current span of ctx.
func Point(ctx context.Context, level Level, msg string) {
	t := FromContext(ctx)
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(level) {
		return
	}
	file, line, target := callSite(1)
	sc := CurrentSpan(ctx)
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Level:    level,
		ParentID: sc.SpanID,
		GID:      getGoroutineID(),
		Name:     msg,
		Target:   target,
		File:     file,
		Line:     line,
	})
}
