package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/berth/internal/docker"
	"github.com/sarth-shah20/berth/internal/engine"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove all services, then the project network",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := docker.NewManager()
		if err != nil {
			return err
		}

		eng := &engine.Engine{
			Config:  cfg,
			Runtime: &docker.Runtime{Manager: mgr, Config: cfg},
		}

		fmt.Printf("Tearing down project %s...\n", cfg.Name)
		// Teardown runs in reverse dependency order and keeps going past
		// individual failures; report them after everything had a chance
		// to stop.
		downErr := eng.Down(ctx)

		if err := mgr.RemoveNetwork(ctx, docker.NetworkName(cfg.Name)); err != nil {
			fmt.Printf("Warning: could not remove network: %v\n", err)
		}

		if downErr != nil {
			return downErr
		}
		fmt.Println("Environment stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downCmd)
}
