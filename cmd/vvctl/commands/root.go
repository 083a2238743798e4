// Package commands implements the vvctl command tree.
package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/vendor-voice/internal/config"
	"github.com/bryanwahyu/vendor-voice/internal/observability"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "vvctl",
	Short:         "Run the attachment pipeline from the command line",
	Long:          "vvctl converts local files to PDF, inspects the available converters, and runs full analyses without the HTTP server.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Path to config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
}

// Execute runs the root command; ctx is cancelled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      cmd.ErrOrStderr(),
		ServiceName: "vvctl",
	})
}
