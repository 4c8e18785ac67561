package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/berth/internal/config"
	"github.com/sarth-shah20/berth/internal/ctxlog"
)

var (
	// cfg holds the loaded, validated descriptor; set by PersistentPreRunE
	// before any subcommand runs.
	cfg *config.Config

	descriptorPath string
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:           "berth",
	Short:         "Berth: bring a declared set of services up on the local Docker daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

		loaded, err := config.Load(descriptorPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the CLI. Ctrl-C cancels the command context so an in-flight
// bring-up tears itself down instead of leaving half an environment behind.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&descriptorPath, "file", "f", "berth.yaml", "path to the service descriptor")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging and engine progress output")
}
