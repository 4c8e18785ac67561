package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/berth/internal/export"
)

var (
	exportOutput string
	exportBucket string
	exportKey    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Freeze the project definition into a shareable bundle",
	Long: `Export packs the descriptor and every env file it references into a
gzipped tarball. Write it to a local file with --output, or push it
straight to S3 with --bucket (credentials come from the ambient AWS
configuration).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOutput == "" && exportBucket == "" {
			return fmt.Errorf("one of --output or --bucket is required")
		}

		if exportBucket != "" {
			key := exportKey
			if key == "" {
				key = export.DefaultKey(cfg)
			}
			if err := export.Push(cmd.Context(), cfg, descriptorPath, exportBucket, key); err != nil {
				return err
			}
			fmt.Printf("Pushed bundle to s3://%s/%s\n", exportBucket, key)
			return nil
		}

		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer f.Close()

		if err := export.Bundle(f, cfg, descriptorPath); err != nil {
			return err
		}
		fmt.Printf("Wrote bundle to %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write the bundle to a local file")
	exportCmd.Flags().StringVar(&exportBucket, "bucket", "", "S3 bucket to push the bundle to")
	exportCmd.Flags().StringVar(&exportKey, "key", "", "S3 object key (default <project>/bundle.tar.gz)")
	rootCmd.AddCommand(exportCmd)
}
