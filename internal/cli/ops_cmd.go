package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/phasehours/internal/cli/formatter"
	"github.com/alexanderramin/phasehours/internal/httpapi"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled expiration detector",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if a.Config.Expiration.Enabled {
				scheduler, err := scheduleExpiration(ctx, a)
				if err != nil {
					return err
				}
				defer func() { <-scheduler.Stop().Done() }()
			}

			server := httpapi.NewServer(a.Services, a.Logger, httpapi.WithRequestTimeout(a.Config.HTTP.RequestTimeout))
			return server.Serve(ctx, a.Config.HTTP)
		},
	}

	cmd.Flags().StringVar(&a.flags.Addr, "addr", "", "listen address (env PHASEHOURS_ADDR)")

	return cmd
}

// scheduleExpiration runs the detector on the configured cron schedule. Runs
// never overlap; a run still in progress when the next is due is skipped.
func scheduleExpiration(ctx context.Context, a *App) (*cron.Cron, error) {
	logger := a.Logger.Named("expiration")
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(a.Config.Expiration.Schedule, func() {
		report, err := a.Services.Expiration.Run(ctx, time.Time{})
		if err != nil {
			logger.Error("scheduled expiration failed", zap.Error(err))
			return
		}
		logger.Debug("scheduled expiration done", zap.Int("created", len(report.Created)))
	})
	if err != nil {
		return nil, fmt.Errorf("expiration schedule %q: %w", a.Config.Expiration.Schedule, err)
	}
	c.Start()
	logger.Info("expiration detector scheduled", zap.String("schedule", a.Config.Expiration.Schedule))
	return c, nil
}

func newExpireCmd(a *App) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Run the expiration detector once",
		RunE: func(cmd *cobra.Command, args []string) error {
			var now time.Time
			if at != "" {
				parsed, err := time.Parse("2006-01-02", at)
				if err != nil {
					return fmt.Errorf("--at %q must be YYYY-MM-DD", at)
				}
				now = parsed
			}
			report, err := a.Services.Expiration.Run(cmd.Context(), now)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatExpiration(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Evaluate as of this date (YYYY-MM-DD); defaults to now")

	return cmd
}

func newImportCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load projects, phases and consultant assignments from a YAML or JSON plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Services.Import.ImportPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects, %d phases, %d assignments\n",
				res.Projects, res.Phases, res.Assignments)
			return nil
		},
	}
}

func newNotificationsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "Read your in-app notifications",
	}

	var unread bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications addressed to --as",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			items, err := a.Services.Notifications.Inbox(cmd.Context(), actor, unread)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNotifications(items))
			return nil
		},
	}
	list.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")

	read := &cobra.Command{
		Use:   "read NOTIFICATION_ID",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := a.requireActor()
			if err != nil {
				return err
			}
			if err := a.Services.Notifications.MarkRead(cmd.Context(), args[0], actor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s read\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, read)
	return cmd
}
