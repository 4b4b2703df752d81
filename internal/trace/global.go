package trace

import (
	"errors"
	"sync"
)

// ErrGlobalAlreadySet is returned by SetGlobal once a tracer is installed.
var ErrGlobalAlreadySet = errors.New("trace: global tracer is already set")

var (
	globalMu     sync.RWMutex
	globalTracer Tracer
)

// SetGlobal installs t as the process-wide tracer used when a context carries
// none. Only the first call succeeds; later calls leave the installed tracer
// untouched and return ErrGlobalAlreadySet.
func SetGlobal(t Tracer) error {
	if t == nil {
		return errors.New("trace: nil global tracer")
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalTracer != nil {
		return ErrGlobalAlreadySet
	}
	globalTracer = t
	return nil
}

// Global returns the process-wide tracer, or Nop if none is installed.
func Global() Tracer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalTracer == nil {
		return Nop
	}
	return globalTracer
}

// resetGlobal clears the global slot. Tests only.
func resetGlobal() {
	globalMu.Lock()
	globalTracer = nil
	globalMu.Unlock()
}
