package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	chunkfile "chunky/chunk/file"
	"chunky/ident"
)

func newSweepCmd(logger *slog.Logger) *cobra.Command {
	var known []string

	cmd := &cobra.Command{
		Use:   "sweep <dir>",
		Short: "Report chunk files not reachable from any known identifier",
		Long: "Sweep globs a chunky directory for regular files that are not the lock file, " +
			"the superblock, or one of the --known identifiers, and reports them as candidate " +
			"orphans left behind by a crash between chunk creation and the owning collection " +
			"recording it. It never deletes anything.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			storage, err := chunkfile.New(chunkfile.Config{Dir: dir, Logger: logger})
			if err != nil {
				return fmt.Errorf("open %q: %w", dir, err)
			}
			defer storage.Close()

			idents := make([]ident.Ident, len(known))
			for i, k := range known {
				idents[i] = ident.New(k)
			}

			orphans, err := storage.Sweep(idents)
			if err != nil {
				return err
			}
			if len(orphans) == 0 {
				fmt.Println("no orphan chunk files found")
				return nil
			}
			for _, path := range orphans {
				fmt.Println(path)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&known, "known", nil, "identifiers reachable from a live collection, excluded from the report")

	return cmd
}
