// Package cli implements the vight command-line interface with Cobra,
// mirroring majorcontext-moat's cmd/moat/cli shape: a root command with
// persistent flags, a handful of subcommands each a thin RunE wired
// into an internal package.
package cli

import (
	"log/slog"
	"os"

	"github.com/axiomata/vight/internal/config"
	"github.com/axiomata/vight/internal/klog"
	"github.com/spf13/cobra"
)

var (
	verbose  bool
	jsonLogs bool
	bootDir  string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vight",
	Short: "Vight - a hosted simulator for a bare-metal desktop kernel core",
	Long: `Vight reimplements the PS/2 input stack, layered compositor, and
terminal/editor state machines of a small bare-metal kernel as a hosted,
single-process desktop simulator driven by a real terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = klog.New(klog.Options{Writer: os.Stderr, Level: level})
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", true, "log in JSON (klog is always JSON; flag kept for CLI-surface parity with moat)")
	rootCmd.PersistentFlags().StringVar(&bootDir, "boot-dir", ".", "directory to load vight.yaml from")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cdmoCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() *config.Config {
	cfg, err := config.Load(bootDir)
	if err != nil {
		logger.Warn("config: falling back to defaults", "err", err)
		return config.Default()
	}
	return cfg
}
