package prof

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	rttrace "runtime/trace"
)

// SpanLabel is the pprof label key carrying the enclosing span name.
const SpanLabel = "span"

// Options names the outputs of a Session. Empty paths are skipped.
type Options struct {
	CPUPath   string // pprof CPU profile, written while the session runs
	MemPath   string // pprof heap profile, written by Stop
	TracePath string // runtime execution trace, written while the session runs
}

// Session owns the pprof and runtime trace outputs requested on the command
// line. The zero value captures nothing.
type Session struct {
	cpuFile   *os.File
	traceFile *os.File
	memPath   string
	stopped   bool
}

// Start begins CPU profiling and runtime tracing as requested by opts and
// remembers the heap profile path for Stop.
func Start(opts Options) (*Session, error) {
	s := &Session{memPath: opts.MemPath}
	if opts.CPUPath != "" {
		f, err := os.Create(opts.CPUPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.TracePath != "" {
		f, err := os.Create(opts.TracePath)
		if err != nil {
			s.memPath = ""
			return nil, errors.Join(fmt.Errorf("failed to create runtime trace: %w", err), s.Stop())
		}
		if err := rttrace.Start(f); err != nil {
			_ = f.Close()
			s.memPath = ""
			return nil, errors.Join(fmt.Errorf("failed to start runtime trace: %w", err), s.Stop())
		}
		s.traceFile = f
	}
	return s, nil
}

// Stop ends tracing and CPU profiling and writes the heap profile. Safe to
// call twice.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true

	var errs []error
	if s.traceFile != nil {
		rttrace.Stop()
		errs = append(errs, s.traceFile.Close())
		s.traceFile = nil
	}
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, s.cpuFile.Close())
		s.cpuFile = nil
	}
	if s.memPath != "" {
		errs = append(errs, writeMem(s.memPath))
	}
	return errors.Join(errs...)
}

// writeMem captures a heap profile to the supplied file path.
func writeMem(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}

// Do runs fn with the pprof label span=name, so CPU samples taken inside fn
// can be attributed to the span. fn also runs inside a runtime trace region
// of the same name, visible in `go tool trace` when a trace is active.
func Do(ctx context.Context, name string, fn func(context.Context)) {
	pprof.Do(ctx, pprof.Labels(SpanLabel, name), func(ctx context.Context) {
		rttrace.WithRegion(ctx, name, func() { fn(ctx) })
	})
}
