package spantree

import (
	"fmt"
	"sync"
	"time"

	"github.com/juju/loggo/v2"

	"spantree/internal/observ"
	"spantree/internal/trace"
)

var logger = loggo.GetLogger("spantree")

// NameFormatter turns span metadata into the label shown in the profile.
// It must always return a name; it is called once per closed span.
type NameFormatter func(trace.Metadata) string

// Config holds profile configuration.
type Config struct {
	Aggregate     bool          // merge same-named siblings before printing
	NameFormatter NameFormatter // nil prints the span name
	Sink          Sink          // nil means stderr
	Color         ColorMode     // name emphasis policy
	MaxLevel      trace.Level   // most verbose span level kept (LevelOff means LevelTrace)
	MaxNameWidth  int           // truncate longer names, 0 = never
	Clock         observ.Clock  // used for events without timestamps
}

// Tree assembles span events into timed trees and prints each tree when its
// root span closes. It implements trace.Tracer.
type Tree struct {
	cfg Config

	mu   sync.Mutex
	open map[uint64]*pending

	done func(root *Node) // print, replaced in tests
}

// pending is the state of a span that has begun but not ended yet.
type pending struct {
	start  time.Time
	meta   trace.Metadata
	parent uint64 // nearest kept ancestor, 0 for roots
	hidden bool   // filtered by level, forwards its children upwards

	// Appended to by closing children while t.mu is held.
	children []*Node
}

// New creates a Tree from cfg, filling in defaults.
func New(cfg Config) *Tree {
	if cfg.Sink == nil {
		cfg.Sink = Stderr()
	}
	if cfg.MaxLevel == trace.LevelOff {
		cfg.MaxLevel = trace.LevelTrace
	}
	if cfg.Clock == nil {
		cfg.Clock = observ.SystemClock{}
	}
	t := &Tree{
		cfg:  cfg,
		open: make(map[uint64]*pending),
	}
	t.done = t.print
	return t
}

// Enable installs t as the global tracer. If another tracer already holds the
// slot, t is not installed and only a debug message is logged.
func (t *Tree) Enable() {
	if err := trace.SetGlobal(t); err != nil {
		logger.Debugf("global tracer is already set: %v", err)
	}
}

// Emit consumes one event. Only span begin and end events matter; points and
// heartbeats are ignored.
func (t *Tree) Emit(ev *trace.Event) {
	switch ev.Kind {
	case trace.KindSpanBegin:
		t.enter(ev)
	case trace.KindSpanEnd:
		t.exit(ev)
	}
}

func (t *Tree) enter(ev *trace.Event) {
	p := &pending{
		start:  t.timeOf(ev),
		meta:   ev.Metadata(),
		parent: ev.ParentID,
		hidden: !t.cfg.MaxLevel.ShouldEmit(ev.Level),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.open[ev.SpanID]; dup {
		panic(fmt.Sprintf("spantree: span %d (%s) began twice", ev.SpanID, ev.Name))
	}
	if p.parent != 0 {
		parent, ok := t.open[p.parent]
		if !ok {
			panic(fmt.Sprintf("spantree: span %d (%s) began under unknown parent %d", ev.SpanID, ev.Name, p.parent))
		}
		if parent.hidden {
			p.parent = parent.parent
		}
	}
	t.open[ev.SpanID] = p
}

func (t *Tree) exit(ev *trace.Event) {
	t.mu.Lock()
	p, ok := t.open[ev.SpanID]
	if !ok {
		t.mu.Unlock()
		panic(fmt.Sprintf("spantree: span %d (%s) ended without beginning", ev.SpanID, ev.Name))
	}
	delete(t.open, ev.SpanID)
	t.mu.Unlock()

	if p.hidden {
		return
	}

	node := t.finish(p, t.timeOf(ev))
	if p.parent == 0 {
		t.done(node)
		return
	}

	// Looked up and appended under t.mu, so the parent cannot finish in between.
	t.mu.Lock()
	defer t.mu.Unlock()
	parent, ok := t.open[p.parent]
	if !ok {
		panic(fmt.Sprintf("spantree: span %d (%s) outlived its parent %d", ev.SpanID, ev.Name, p.parent))
	}
	parent.children = append(parent.children, node)
}

// finish converts the pending state into a node.
func (t *Tree) finish(p *pending, end time.Time) *Node {
	name := p.meta.Name
	if t.cfg.NameFormatter != nil {
		name = t.cfg.NameFormatter(p.meta)
	}
	dur := end.Sub(p.start)
	if dur < 0 {
		dur = 0
	}

	return &Node{
		Name:     name,
		Count:    1,
		Duration: dur,
		Children: p.children,
	}
}

// print runs the aggregation and rendering pipeline for a finished root.
func (t *Tree) print(root *Node) {
	if t.cfg.Aggregate {
		root.Aggregate()
	}
	newRenderer(t.cfg.Sink, t.cfg.Color, t.cfg.MaxNameWidth).render(root)
}

func (t *Tree) timeOf(ev *trace.Event) time.Time {
	if ev.Time.IsZero() {
		return t.cfg.Clock.Now()
	}
	return ev.Time
}

// Open returns the number of spans that have begun but not ended.
func (t *Tree) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}

// Flush is a no-op: trees are printed as soon as their root closes.
func (t *Tree) Flush() error { return nil }

// Close is a no-op. Spans still open are dropped with the Tree.
func (t *Tree) Close() error { return nil }

// Level returns the most verbose span level kept in profiles.
func (t *Tree) Level() trace.Level { return t.cfg.MaxLevel }

// Enabled always returns true.
func (t *Tree) Enabled() bool { return true }
