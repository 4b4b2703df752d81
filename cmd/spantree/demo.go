package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spantree/internal/prof"
	core "spantree/internal/spantree"
	"spantree/internal/trace"
)

type demoOptions struct {
	runs       int
	middles    int
	unit       time.Duration
	concurrent bool
}

// dumpOptions controls the raw event dump written next to the profile.
type dumpOptions struct {
	path      string
	mode      string
	ringSize  int
	heartbeat time.Duration
}

var (
	demoOpts demoOptions
	dumpOpts dumpOptions
)

func init() {
	flags := demoCmd.Flags()
	flags.IntVar(&demoOpts.runs, "runs", 1, "number of top-level spans to profile")
	flags.IntVar(&demoOpts.middles, "middles", 4, "middle spans per run")
	flags.DurationVar(&demoOpts.unit, "unit", time.Millisecond, "sleep unit of the workload")
	flags.BoolVar(&demoOpts.concurrent, "goroutines", false, "run middle spans concurrently")
	flags.StringVar(&dumpOpts.path, "dump", "", "also write raw events here (.ndjson, .msgpack, anything else is text)")
	flags.StringVar(&dumpOpts.mode, "dump-mode", "stream", "dump storage mode (stream|ring)")
	flags.IntVar(&dumpOpts.ringSize, "ring-size", 4096, "events kept in ring mode")
	flags.DurationVar(&dumpOpts.heartbeat, "heartbeat", 0, "emit heartbeat events into the dump at this interval (0 = off)")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Profile a small nested workload",
	Long: `demo runs top_level, which runs a number of middle spans sleeping
i units each; every even middle also runs a leaf sleeping one unit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		stopProfiling, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		defer stopProfiling()

		tracer, closeTracer, err := demoTracer(s, core.WriterSink(cmd.OutOrStdout()), dumpOpts)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeTracer(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
			}
		}()

		ctx := trace.WithTracer(cmd.Context(), tracer)
		for r := 0; r < demoOpts.runs; r++ {
			if err := topLevel(ctx, demoOpts); err != nil {
				return err
			}
		}
		return nil
	},
}

// demoTracer returns the profile tree, fanned out together with a raw event
// dump when d.path is set. The returned cleanup stops the heartbeat, writes
// out a ring dump and closes every tracer.
func demoTracer(s settings, sink core.Sink, d dumpOptions) (trace.Tracer, func() error, error) {
	tree := core.New(s.treeConfig(sink))
	if d.path == "" {
		return tree, tree.Close, nil
	}

	mode, err := trace.ParseMode(d.mode)
	if err != nil {
		return nil, nil, err
	}
	if mode == trace.ModeBoth {
		return nil, nil, fmt.Errorf("dump mode %s is not supported by demo (expected: stream|ring)", mode)
	}
	format := trace.FormatForPath(d.path)
	dump, err := trace.New(trace.Config{
		Level:      s.Level,
		Mode:       mode,
		Format:     format,
		OutputPath: d.path,
		RingSize:   d.ringSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dump tracer: %w", err)
	}
	var writeRing func() error
	if ring, ok := dump.(trace.Dumper); ok && mode == trace.ModeRing {
		writeRing = func() error {
			f, err := os.Create(d.path)
			if err != nil {
				return fmt.Errorf("failed to open trace output: %w", err)
			}
			return errors.Join(ring.Dump(f, format), f.Close())
		}
	}

	heartbeat := trace.StartHeartbeat(context.Background(), dump, d.heartbeat, tree.Open)
	tracer := trace.NewMultiTracer(s.Level, tree, dump)
	cleanup := func() error {
		heartbeat.Stop()
		var errs []error
		if writeRing != nil {
			errs = append(errs, writeRing())
		}
		errs = append(errs, tracer.Flush(), tracer.Close())
		return errors.Join(errs...)
	}
	return tracer, cleanup, nil
}

func topLevel(ctx context.Context, opts demoOptions) error {
	ctx, span := trace.Start(ctx, trace.LevelInfo, "top_level")
	defer span.End("")

	if !opts.concurrent {
		for i := 0; i < opts.middles; i++ {
			middle(ctx, i, opts.unit)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.middles; i++ {
		i := i
		g.Go(func() error {
			middle(gctx, i, opts.unit)
			return nil
		})
	}
	return g.Wait()
}

func middle(ctx context.Context, i int, unit time.Duration) {
	ctx, span := trace.Start(ctx, trace.LevelInfo, "middle")
	defer span.End("")

	prof.Do(ctx, "middle", func(ctx context.Context) {
		trace.Point(ctx, trace.LevelDebug, fmt.Sprintf("iteration %d", i))
		time.Sleep(time.Duration(i) * unit)
		if i%2 == 0 {
			leaf(ctx, unit)
		}
	})
}

func leaf(ctx context.Context, unit time.Duration) {
	_, span := trace.Start(ctx, trace.LevelDebug, "leaf")
	defer span.End("")
	time.Sleep(unit)
}
