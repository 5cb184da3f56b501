package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fkobayashi/studyagent/internal/bootstrap"
	"github.com/fkobayashi/studyagent/internal/notify"
	"github.com/fkobayashi/studyagent/internal/notify/telegram"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled review sweeper until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			var notifier notify.Notifier
			if rt.cfg.Telegram.Token != "" {
				notifier = telegram.NewNotifier(rt.cfg.Telegram.Token, "")
			} else {
				slog.Warn("no telegram token configured, review reminders are disabled")
			}
			sweeper := rt.newSweeper(notifier)

			app := bootstrap.New()
			app.AddShutdownHook(func(ctx context.Context) error {
				return rt.Close()
			})

			interval := time.Duration(rt.cfg.Scheduler.SweepIntervalMinutes) * time.Minute
			return app.Run(cmd.Context(), func(ctx context.Context) error {
				if !rt.cfg.Scheduler.Enabled {
					slog.Info("scheduler disabled in config, waiting for shutdown")
					<-ctx.Done()
					return nil
				}
				slog.Info("starting scheduled review sweeper", slog.Duration("interval", interval))
				return sweeper.Run(ctx, interval)
			})
		},
	}
}
