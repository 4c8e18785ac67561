package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/berth/internal/docker"
	"github.com/sarth-shah20/berth/internal/engine"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start all declared services in dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := docker.NewManager()
		if err != nil {
			return err
		}
		if verbose {
			mgr.Progress = os.Stderr
		}

		if err := mgr.EnsureNetwork(ctx, docker.NetworkName(cfg.Name)); err != nil {
			return err
		}

		eng := &engine.Engine{
			Config:  cfg,
			Runtime: &docker.Runtime{Manager: mgr, Config: cfg},
		}

		fmt.Printf("Bringing up project %s (%d services)...\n", cfg.Name, len(cfg.Services))
		if err := eng.Up(ctx); err != nil {
			return err
		}
		fmt.Println("All services started.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
}
