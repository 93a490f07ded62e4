package main

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Print chunk files as they are created or removed in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch: create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch: add %q: %w", dir, err)
			}

			logger.Info("watching directory for chunk file changes", "dir", dir)
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					switch {
					case event.Has(fsnotify.Create):
						fmt.Printf("created %s\n", event.Name)
					case event.Has(fsnotify.Remove):
						fmt.Printf("removed %s\n", event.Name)
					case event.Has(fsnotify.Write):
						fmt.Printf("modified %s\n", event.Name)
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Error("watch error", "error", err)
				}
			}
		},
	}

	return cmd
}
