// Command chunkctl is a debugging and operations tool for chunky storage
// directories. It is a convenience wrapper around the library, not a
// required integration surface: every chunky collection works fully without
// it.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rootCmd := &cobra.Command{
		Use:   "chunkctl",
		Short: "Inspect and manage chunky storage directories",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(
		versionCmd,
		newInspectCmd(logger),
		newSweepCmd(logger),
		newExportCmd(logger),
		newImportCmd(logger),
		newDemoCmd(logger),
		newWatchCmd(logger),
		newAutosnapshotCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
