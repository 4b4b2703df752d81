package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	core "spantree/internal/spantree"
	"spantree/internal/trace"
)

var replayJobs int

func init() {
	replayCmd.Flags().IntVar(&replayJobs, "jobs", runtime.GOMAXPROCS(0), "files decoded in parallel")
}

var replayCmd = &cobra.Command{
	Use:   "replay FILE...",
	Short: "Render profiles from recorded event dumps",
	Long: `replay reads NDJSON (.ndjson, .jsonl) or msgpack (.msgpack, .mp) event
dumps and prints the profile of every root span they contain. Files are
decoded in parallel and printed in argument order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := resolveSettings(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if s.Color.Styled(out) {
			s.Color = core.ColorAlways
		} else {
			s.Color = core.ColorNever
		}

		results := make([]bytes.Buffer, len(args))
		g, gctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(1, min(replayJobs, len(args))))
		for i, path := range args {
			i, path := i, path
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				open, err := replayFile(path, s.treeConfig(core.WriterSink(&results[i])))
				if err != nil {
					return err
				}
				if open > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d spans never ended\n", path, open)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, path := range args {
			if len(args) > 1 {
				fmt.Fprintf(out, "==> %s <==\n", path)
			}
			if _, err := results[i].WriteTo(out); err != nil {
				return fmt.Errorf("failed to write profile: %w", err)
			}
		}
		return nil
	},
}

// replayFile feeds every event of the dump at path into a fresh tree and
// returns how many spans were still open at the end.
func replayFile(path string, cfg core.Config) (int, error) {
	format := trace.FormatForPath(path)
	if format == trace.FormatText {
		return 0, fmt.Errorf("%s: unsupported dump format (want .ndjson, .jsonl, .msgpack or .mp)", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	open, err := replay(f, format, cfg)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return open, nil
}

// replay decodes events from r into a new tree. Inconsistent dumps, such as
// ring buffers that lost the begin of a span, are reported as errors.
func replay(r io.Reader, format trace.Format, cfg core.Config) (open int, err error) {
	dec, err := trace.NewDecoder(r, format)
	if err != nil {
		return 0, err
	}
	tree := core.New(cfg)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("inconsistent dump: %v", p)
		}
	}()

	var ev trace.Event
	for {
		if err := dec.Next(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		tree.Emit(&ev)
	}
	return tree.Open(), nil
}
