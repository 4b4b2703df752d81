// Package spantree prints a hierarchical timing profile of traced spans.
//
//	spantree.SpanTree().Aggregate(true).Enable()
//
//	ctx, span := spantree.Start(ctx, "top_level")
//	defer span.End("")
//
// Every time a root span closes its tree is written to the sink (stderr by
// default), one line per span, followed by an empty line.
package spantree

import (
	"context"
	"io"

	core "spantree/internal/spantree"
	"spantree/internal/trace"
)

type (
	// Node is one line of a profile.
	Node = core.Node
	// Metadata describes a span to a name formatter.
	Metadata = trace.Metadata
	// Level is a span verbosity.
	Level = trace.Level
	// Span is an open span; call End once.
	Span = trace.Span
	// Sink produces the destination of every profile line.
	Sink = core.Sink
	// ColorMode controls emphasis of span names.
	ColorMode = core.ColorMode
)

const (
	LevelError = trace.LevelError
	LevelWarn  = trace.LevelWarn
	LevelInfo  = trace.LevelInfo
	LevelDebug = trace.LevelDebug
	LevelTrace = trace.LevelTrace

	ColorAuto   = core.ColorAuto
	ColorAlways = core.ColorAlways
	ColorNever  = core.ColorNever
)

// Builder configures a profile printer before it is built or enabled.
type Builder struct {
	cfg core.Config
}

// SpanTree returns a builder printing to stderr.
func SpanTree() Builder {
	return Builder{cfg: core.Config{Sink: core.Stderr()}}
}

// SpanTreeWith returns a builder printing to the writers produced by sink.
func SpanTreeWith(sink Sink) Builder {
	return Builder{cfg: core.Config{Sink: sink}}
}

// SpanTreeTo returns a builder printing every line to w.
func SpanTreeTo(w io.Writer) Builder {
	return SpanTreeWith(core.WriterSink(w))
}

// Aggregate merges identical sibling spans together.
func (b Builder) Aggregate(yes bool) Builder {
	b.cfg.Aggregate = yes
	return b
}

// NameFormatter replaces span names with fn(metadata). fn must always return.
func (b Builder) NameFormatter(fn func(Metadata) string) Builder {
	b.cfg.NameFormatter = fn
	return b
}

// Color overrides terminal detection for name emphasis.
func (b Builder) Color(mode ColorMode) Builder {
	b.cfg.Color = mode
	return b
}

// MaxLevel drops spans more verbose than level from the profile.
func (b Builder) MaxLevel(level Level) Builder {
	b.cfg.MaxLevel = level
	return b
}

// MaxNameWidth truncates names wider than width terminal cells.
func (b Builder) MaxNameWidth(width int) Builder {
	b.cfg.MaxNameWidth = width
	return b
}

// Build returns the configured tracer without installing it.
func (b Builder) Build() *core.Tree {
	return core.New(b.cfg)
}

// Enable installs the tracer process-wide. A second call is a logged no-op.
func (b Builder) Enable() {
	b.Build().Enable()
}

// Start opens an info-level span. See trace.Start.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	return trace.StartDepth(ctx, 1, trace.LevelInfo, name)
}

// StartLevel opens a span at the given level.
func StartLevel(ctx context.Context, level Level, name string) (context.Context, *Span) {
	return trace.StartDepth(ctx, 1, level, name)
}
