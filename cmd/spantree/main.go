package main

import (
	"fmt"
	"os"

	"github.com/juju/loggo/v2"
	"github.com/spf13/cobra"

	"spantree/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "spantree",
	Short: "Hierarchical span timing profiles",
	Long: `spantree renders span timing trees: live for the bundled demo workload,
or offline from NDJSON/msgpack event dumps written by the trace package.`,
	SilenceUsage:      true,
	PersistentPreRunE: configureLogging,
}

// main registers subcommands and persistent flags, then executes the root
// command. Any command error exits with status 1.
func main() {
	rootCmd.Version = version.String()

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)

	registerPersistentFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configureLogging applies the loggo spec from --log-level, or from the
// config file's [log] level when the flag is not set.
func configureLogging(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if err := loggo.ConfigureLoggers(s.LogSpec); err != nil {
		return fmt.Errorf("invalid log level %q: %w", s.LogSpec, err)
	}
	return nil
}

// registerPersistentFlags declares the flags shared by every subcommand.
func registerPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "profile settings file (default ./"+defaultConfigName+" if present)")
	flags.Bool("aggregate", false, "merge identical sibling spans")
	flags.String("color", "auto", "emphasise span names (auto|on|off)")
	flags.String("level", "trace", "most verbose span level shown (error|warn|info|debug|trace)")
	flags.Int64("max-name-width", 0, "truncate span names wider than this (0 = never)")
	flags.String("log-level", "<root>=WARNING", "loggo logging spec, e.g. spantree=DEBUG")
	flags.String("cpu-profile", "", "write a pprof CPU profile to this path")
	flags.String("mem-profile", "", "write a pprof heap profile to this path on exit")
	flags.String("runtime-trace", "", "write a runtime execution trace to this path")
}
