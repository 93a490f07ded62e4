package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"chunky/snapshot"
)

func newAutosnapshotCmd(logger *slog.Logger) *cobra.Command {
	var cronExpr string
	var rateLimit int64

	cmd := &cobra.Command{
		Use:   "autosnapshot <dir> <archive>",
		Short: "Periodically export a chunky directory to an archive on a cron schedule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, archivePath := args[0], args[1]

			scheduler, err := gocron.NewScheduler()
			if err != nil {
				return fmt.Errorf("autosnapshot: create scheduler: %w", err)
			}

			exportOnce := func() {
				f, err := os.Create(archivePath)
				if err != nil {
					logger.Error("autosnapshot: create archive", "error", err)
					return
				}
				defer f.Close()

				if err := snapshot.Export(context.Background(), dir, f, snapshot.Options{RateLimit: rateLimit}); err != nil {
					logger.Error("autosnapshot: export failed", "error", err)
					return
				}
				logger.Info("autosnapshot: export complete", "archive", archivePath)
			}

			if _, err := scheduler.NewJob(
				gocron.CronJob(cronExpr, false),
				gocron.NewTask(exportOnce),
				gocron.WithName("chunkctl-autosnapshot"),
			); err != nil {
				return fmt.Errorf("autosnapshot: schedule job: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			scheduler.Start()
			logger.Info("autosnapshot scheduler started", "cron", cronExpr, "dir", dir, "archive", archivePath)
			<-ctx.Done()

			return scheduler.Shutdown()
		},
	}

	cmd.Flags().StringVar(&cronExpr, "every", "@hourly", "cron expression for the export schedule")
	cmd.Flags().Int64Var(&rateLimit, "rate-limit", 0, "cap archive throughput in bytes/sec (0 = unlimited)")

	return cmd
}
