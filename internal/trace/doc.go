// Package trace is the span instrumentation layer consumed by spantree.
//
// Code under measurement opens spans; every span emits a begin event when it
// starts and an end event when it finishes. Tracers receive those events.
//
// # Usage
//
//	ctx, span := trace.Start(ctx, trace.LevelInfo, "load_config")
//	defer span.End("")
//
// Start picks the tracer from ctx (see WithTracer) or falls back to the
// process-wide tracer installed with SetGlobal. The returned context carries
// the new span, so spans started from it record it as their parent.
//
// # Tracers
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer for crash dumps
//   - MultiTracer: combines multiple tracers
//
// StartHeartbeat adds periodic heartbeat events to a tracer, so a dump shows
// whether the program was still alive while a span stayed open.
//
// # Levels
//
// Every span and point has a level. A tracer only sees events whose level does
// not exceed its own: LevelError < LevelWarn < LevelInfo < LevelDebug <
// LevelTrace. A filtered span is invisible, and its children attach to the
// closest visible ancestor.
//
// # Dumps
//
// Stream and ring tracers can write text, NDJSON or msgpack. The latter two
// can be read back with Decoder.
package trace
