package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
// A span or point carries its own level; a tracer only receives it when the
// level does not exceed the tracer's configured level.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff   Level = iota // no tracing
	LevelError              // failures only
	LevelWarn
	LevelInfo  // coarse operations
	LevelDebug // detailed operations
	LevelTrace // everything
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace", "all":
		return LevelTrace, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|warn|info|debug|trace)", s)
	}
}

// ShouldEmit returns true if an event of the given level passes this filter.
func (l Level) ShouldEmit(ev Level) bool {
	if l == LevelOff || ev == LevelOff {
		return false
	}
	return ev <= l
}
