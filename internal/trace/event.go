package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1 // span start
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd // span end
	// KindPoint represents an instant event.
	KindPoint     // instant event
	KindHeartbeat // periodic liveness signal
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// ParseKind converts the String form back to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "begin":
		return KindSpanBegin, true
	case "end":
		return KindSpanEnd, true
	case "point":
		return KindPoint, true
	case "heartbeat":
		return KindHeartbeat, true
	default:
		return 0, false
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         `msgpack:"time"`      // wall-clock timestamp
	Seq      uint64            `msgpack:"seq"`       // global sequence number (monotonic)
	Kind     Kind              `msgpack:"kind"`      // event kind
	Level    Level             `msgpack:"level"`     // verbosity of the span or point
	SpanID   uint64            `msgpack:"span_id"`   // unique span identifier
	ParentID uint64            `msgpack:"parent_id"` // parent span (0 if root)
	GID      uint64            `msgpack:"gid"`       // goroutine ID (for concurrent spans)
	Name     string            `msgpack:"name"`      // e.g. "parse", "load_config"
	Target   string            `msgpack:"target"`    // package or subsystem that opened the span
	File     string            `msgpack:"file"`      // call site of Start
	Line     int               `msgpack:"line"`
	Detail   string            `msgpack:"detail"` // optional detail message
	Extra    map[string]string `msgpack:"extra"`  // extensible key-value pairs
}

// Metadata is the static, read-only description of a span.
// It is what name formatters receive when a span closes.
type Metadata struct {
	Name   string
	Target string
	Level  Level
	File   string
	Line   int
}

// Metadata extracts the static span description carried by the event.
func (ev *Event) Metadata() Metadata {
	return Metadata{
		Name:   ev.Name,
		Target: ev.Target,
		Level:  ev.Level,
		File:   ev.File,
		Line:   ev.Line,
	}
}
