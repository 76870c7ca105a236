// Package cli implements the phasehours command line. Every command runs the
// same service layer the HTTP API uses.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexanderramin/phasehours/internal/cli/formatter"
	"github.com/alexanderramin/phasehours/internal/config"
	"github.com/alexanderramin/phasehours/internal/db"
	"github.com/alexanderramin/phasehours/internal/logging"
	"github.com/alexanderramin/phasehours/internal/notify"
	"github.com/alexanderramin/phasehours/internal/repository"
	"github.com/alexanderramin/phasehours/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds what commands need once the root command has bootstrapped.
// Tests pre-populate Services and skip bootstrapping.
type App struct {
	Services *service.Services
	Config   *config.Config
	Logger   *zap.Logger

	flags      config.Flags
	actor      string
	database   *sql.DB
	dispatcher *notify.Dispatcher
}

// NewRootCmd creates the top-level "phasehours" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "phasehours",
		Short:         "Phase allocation approval and reallocation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				formatter.DisableColor()
			}
			if app.Services != nil {
				return nil
			}
			return app.bootstrap(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close(cmd.Context())
		},
	}

	app.flags.BindFlags(root.PersistentFlags())
	root.PersistentFlags().StringVar(&app.actor, "as", os.Getenv("PHASEHOURS_USER"), "user ID to act as (env PHASEHOURS_USER)")

	root.AddCommand(
		newServeCmd(app),
		newExpireCmd(app),
		newImportCmd(app),
		newAllocationCmd(app),
		newWeeklyCmd(app),
		newUnplannedCmd(app),
		newNotificationsCmd(app),
	)

	return root
}

func (app *App) bootstrap(cmd *cobra.Command) error {
	cfg, err := config.Load(app.flags.ConfigPath)
	if err != nil {
		return err
	}
	app.flags.Apply(cfg, cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	app.Config = cfg

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	app.Logger = logger

	database, err := db.OpenDB(cfg.Database.Path, db.WithBusyTimeout(cfg.Database.BusyTimeout))
	if err != nil {
		return err
	}
	app.database = database

	publishers := notify.Fanout{notify.NewLogPublisher(logger)}
	if cfg.Notifications.InboxEnabled {
		publishers = append(publishers, notify.NewInboxPublisher(repository.NewStore(database).Notifications))
	}
	app.dispatcher = notify.NewDispatcher(publishers, logger, cfg.Notifications.QueueSize)

	app.Services = service.New(service.Deps{
		DB:        database,
		UoW:       db.NewSQLiteUnitOfWork(database),
		Caps:      service.NewStaticCapabilities(cfg.GrowthTeam),
		Publisher: app.dispatcher,
		Logger:    logger,
		Observer:  service.NewLogUseCaseObserver(logger),
	})
	logger.Debug("bootstrapped",
		zap.String("db", cfg.Database.Path),
		zap.Strings("growth_team", cfg.GrowthTeam))
	return nil
}

// Close drains queued notifications and releases the database.
func (app *App) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	if app.dispatcher != nil {
		errs = append(errs, app.dispatcher.Close(ctx))
		app.dispatcher = nil
	}
	if app.database != nil {
		errs = append(errs, app.database.Close())
		app.database = nil
	}
	if app.Logger != nil {
		_ = app.Logger.Sync()
	}
	return errors.Join(errs...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// requireActor returns the --as user or an error naming the flag.
func (app *App) requireActor() (string, error) {
	actor := strings.TrimSpace(app.actor)
	if actor == "" {
		return "", fmt.Errorf("--as USER_ID is required for this command")
	}
	return actor, nil
}
