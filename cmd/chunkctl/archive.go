package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"chunky/snapshot"
)

func newExportCmd(logger *slog.Logger) *cobra.Command {
	var rateLimit int64
	var workers int

	cmd := &cobra.Command{
		Use:   "export <dir> <archive>",
		Short: "Compress a chunky directory into a single archive file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, archivePath := args[0], args[1]

			f, err := os.Create(archivePath)
			if err != nil {
				return err
			}
			defer f.Close()

			logger.Info("exporting", "dir", dir, "archive", archivePath)
			return snapshot.Export(context.Background(), dir, f, snapshot.Options{
				Workers:   workers,
				RateLimit: rateLimit,
			})
		},
	}

	cmd.Flags().Int64Var(&rateLimit, "rate-limit", 0, "cap archive throughput in bytes/sec (0 = unlimited)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent file compression workers (0 = default)")

	return cmd
}

func newImportCmd(logger *slog.Logger) *cobra.Command {
	var rateLimit int64
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import <archive> <dir>",
		Short: "Recreate a chunky directory from an archive produced by export",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archivePath, dir := args[0], args[1]

			f, err := os.Open(archivePath)
			if err != nil {
				return err
			}
			defer f.Close()

			logger.Info("importing", "archive", archivePath, "dir", dir)
			if err := snapshot.Import(context.Background(), f, dir, snapshot.Options{
				RateLimit: rateLimit,
				Overwrite: overwrite,
			}); err != nil {
				return fmt.Errorf("import %q into %q: %w", archivePath, dir, err)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&rateLimit, "rate-limit", 0, "cap archive throughput in bytes/sec (0 = unlimited)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "allow importing into a non-empty directory")

	return cmd
}
