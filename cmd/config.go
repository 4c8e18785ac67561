package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the descriptor and print its canonical form",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Loading already validated; reaching this point means the
		// descriptor is sound. Print the normalized view.
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("render descriptor: %w", err)
		}
		os.Stdout.Write(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
