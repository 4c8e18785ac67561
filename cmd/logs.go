package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/berth/internal/docker"
)

var logsFollow bool

var logsCmd = &cobra.Command{
	Use:   "logs <service>",
	Short: "Print a service's container output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]
		if _, ok := cfg.Services[service]; !ok {
			return fmt.Errorf("service %q is not declared in the descriptor", service)
		}

		mgr, err := docker.NewManager()
		if err != nil {
			return err
		}

		return mgr.StreamLogs(cmd.Context(), cfg.Name, service, logsFollow, os.Stdout, os.Stderr)
	},
}

func init() {
	// No -f shorthand: that's taken by the persistent --file flag.
	logsCmd.Flags().BoolVar(&logsFollow, "follow", false, "follow log output")
	rootCmd.AddCommand(logsCmd)
}
