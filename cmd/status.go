package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/berth/internal/docker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the project's containers",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := docker.NewManager()
		if err != nil {
			return err
		}

		containers, err := mgr.ListContainers(cmd.Context(), cfg.Name)
		if err != nil {
			return err
		}

		if len(containers) == 0 {
			fmt.Printf("No containers found for project %s.\n", cfg.Name)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SERVICE\tIMAGE\tSTATUS\tPORTS")

		for _, c := range containers {
			service := c.Labels["berth.service"]
			if service == "" && len(c.Names) > 0 {
				// Fall back to the container name, minus the leading slash.
				service = c.Names[0][1:]
			}

			ports := ""
			for _, p := range c.Ports {
				if p.PublicPort != 0 {
					ports += fmt.Sprintf("%d->%d/%s ", p.PublicPort, p.PrivatePort, p.Type)
				}
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", service, c.Image, c.Status, ports)
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
