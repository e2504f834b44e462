package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/daedaleanai/pgantt/internal/client"
	"github.com/daedaleanai/pgantt/internal/config"
	"github.com/daedaleanai/pgantt/internal/db"
	"github.com/daedaleanai/pgantt/internal/metrics"
	"github.com/daedaleanai/pgantt/internal/observe"
	"github.com/daedaleanai/pgantt/internal/refresh"
	"github.com/daedaleanai/pgantt/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds the configuration and collaborators used by CLI commands.
// Fields that are already set when Open runs are kept, which lets tests
// inject an in-memory database and a test server client.
type App struct {
	Config config.Config

	DB        *sql.DB
	UoW       db.UnitOfWork
	Projects  repository.ProjectRepo
	Settings  repository.SettingsRepo
	Snapshots repository.SnapshotRepo
	Cache     refresh.Cache

	Client   *client.Client
	Logger   *zap.Logger
	Observer observe.Observer
	Metrics  *metrics.Metrics

	// IsInteractive reports whether stdin is a terminal. Nil means false.
	IsInteractive func() bool
	Now           func() time.Time

	closers []io.Closer
}

// Open loads the config file at configPath, opens the log file and the
// database, and builds the server client.
func (a *App) Open(configPath, logLevel string) error {
	if a.DB != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	a.Config = cfg

	if a.Logger == nil {
		logger, err := a.openLogger(cfg)
		if err != nil {
			return err
		}
		a.Logger = logger
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, database)
	a.Wire(database)

	if a.Client == nil {
		a.Client = client.New(client.Config{
			BaseURL: cfg.ServerURL,
			Token:   cfg.Token,
			Timeout: cfg.HTTPTimeout,
		}, a.Observer)
	}
	return nil
}

// The log goes to a file so the terminal UI stays clean.
func (a *App) openLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.LogFile == "" {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	a.closers = append(a.closers, f)
	return observe.NewLogger(cfg.LogLevel, f)
}

// Wire attaches the repositories backed by database and fills in the
// remaining defaults.
func (a *App) Wire(database *sql.DB) {
	a.DB = database
	a.UoW = db.NewSQLiteUnitOfWork(database)
	a.Projects = repository.NewSQLiteProjectRepo(database)
	a.Settings = repository.NewSQLiteSettingsRepo(database)
	a.Snapshots = repository.NewSQLiteSnapshotRepo(database)
	a.Cache = repository.NewSnapshotCache(database, a.UoW)

	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	if a.Observer == nil {
		a.Observer = observe.NewZapObserver(a.Logger)
	}
	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}
	if a.Now == nil {
		a.Now = time.Now
	}
}

// Close releases the database and the log file.
func (a *App) Close() error {
	var errs []error
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// requireServer fails early when no planning server is configured.
func (a *App) requireServer() error {
	if err := a.Config.Validate(); err != nil {
		if errors.Is(err, config.ErrNoHost) {
			return fmt.Errorf("%w: add a host to %s or set PGANTT_SERVER", err, config.DefaultPath())
		}
		return err
	}
	return nil
}

// NewRootCmd creates the top-level "pgantt" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configPath, logLevel string

	root := &cobra.Command{
		Use:           "pgantt",
		Short:         "Gantt charts for Phabricator projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Open(configPath, logLevel)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newProjectsCmd(app),
		newPlanCmd(app),
		newWatchCmd(app),
		newSyncCmd(app),
		newSettingsCmd(app),
		newTaskCmd(app),
		newLinkCmd(app),
	)

	return root
}
