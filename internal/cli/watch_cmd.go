package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/refresh"
	"github.com/daedaleanai/pgantt/internal/repository"
	"github.com/daedaleanai/pgantt/internal/source"
	"github.com/daedaleanai/pgantt/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchTarget is what a watch session follows: a server project, or a
// snapshot file keyed by its path.
type watchTarget struct {
	project domain.Project
	source  refresh.Source
	cache   refresh.Cache
	file    string
}

func newWatchCmd(app *App) *cobra.Command {
	var file, metricsAddr string
	var plain bool

	cmd := &cobra.Command{
		Use:   "watch [project]",
		Short: "Show a live gantt chart that follows the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			target, err := watchTargetFor(ctx, app, firstArg(args), file)
			if err != nil {
				return err
			}
			settings, err := app.Settings.GetOrDefault(ctx, repository.DefaultProfile)
			if err != nil {
				return err
			}

			if metricsAddr == "" {
				metricsAddr = app.Config.MetricsAddr
			}
			if metricsAddr != "" {
				serveMetrics(ctx, metricsAddr, app.Metrics.Handler(), app.Logger)
			}

			if plain || !app.interactive() {
				return watchPlain(ctx, app, cmd.OutOrStdout(), cmd.ErrOrStderr(), target, settings)
			}
			return watchTUI(ctx, app, target, settings)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Follow a snapshot JSON file instead of the server")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print a chart on every change instead of the interactive view")

	return cmd
}

func watchTargetFor(ctx context.Context, app *App, arg, file string) (watchTarget, error) {
	if file != "" {
		abs, err := filepath.Abs(file)
		if err != nil {
			return watchTarget{}, fmt.Errorf("resolving %s: %w", file, err)
		}
		name := filepath.Base(abs)
		if arg != "" {
			name = arg
		}
		return watchTarget{
			project: domain.Project{Name: name, PHID: abs},
			source:  &source.File{Path: abs},
			file:    abs,
		}, nil
	}

	if err := app.requireServer(); err != nil {
		return watchTarget{}, err
	}
	project, err := resolveProject(ctx, app, arg)
	if err != nil {
		return watchTarget{}, err
	}
	return watchTarget{
		project: project,
		source:  source.NewHTTP(app.Client, app.Config.IncludeClosed),
		cache:   app.Cache,
	}, nil
}

func newWatchController(app *App, target watchTarget, r refresh.Renderer, n refresh.Notifier) *refresh.Controller {
	return refresh.New(store.New(), target.source, r, n, refresh.Options{
		PollInterval: app.Config.PollInterval,
		Observer:     app.Observer,
		Metrics:      app.Metrics,
		Cache:        target.cache,
	})
}

// followFile refreshes on every change of the watched file, on top of the
// regular polling.
func followFile(ctx context.Context, app *App, ctrl *refresh.Controller, target watchTarget) {
	if target.file == "" {
		return
	}
	go func() {
		err := source.Watch(ctx, target.file, func() {
			_, _ = ctrl.RefreshSelected(ctx)
		})
		if err != nil && ctx.Err() == nil {
			app.Logger.Warn("file watch stopped", zap.String("path", target.file), zap.Error(err))
		}
	}()
}

func watchTUI(ctx context.Context, app *App, target watchTarget, settings domain.Settings) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ctrl *refresh.Controller
	model := newGanttView(target.project, settings, ganttActions{
		Refresh: func(ctx context.Context) error {
			_, err := ctrl.RefreshSelected(ctx)
			return err
		},
		SaveSettings: func(ctx context.Context, s domain.Settings) error {
			return app.Settings.Save(ctx, repository.DefaultProfile, s)
		},
		Now: app.Now,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge := programBridge{send: p.Send}
	ctrl = newWatchController(app, target, bridge, bridge)

	go func() { _ = ctrl.Watch(ctx, target.project.PHID) }()
	followFile(ctx, app, ctrl, target)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// watchPlain prints the chart on every applied update until ctx is done.
func watchPlain(ctx context.Context, app *App, out, errOut io.Writer, target watchTarget, settings domain.Settings) error {
	var mu sync.Mutex
	renderer := refresh.RendererFunc(func(_ context.Context, u refresh.Update) {
		mu.Lock()
		defer mu.Unlock()
		label := fmt.Sprintf("%s  v%d  %s", target.project.Name, u.Version, app.Now().Format(time.TimeOnly))
		if u.Cached {
			label += "  (cached)"
		}
		fmt.Fprintln(out, formatter.Header(label))
		printPlan(out, u.Snapshot, settings, true, app.Now())
		fmt.Fprintln(out)
	})
	notifier := refresh.NotifierFunc(func(_ context.Context, n refresh.Notification) {
		mu.Lock()
		defer mu.Unlock()
		msg := fmt.Sprintf("%s: %s", n.Level, n.Message)
		if n.Err != nil {
			msg += ": " + n.Err.Error()
		}
		fmt.Fprintln(errOut, formatter.StyleYellow.Render(msg))
	})

	ctrl := newWatchController(app, target, renderer, notifier)
	followFile(ctx, app, ctrl, target)
	return ctrl.Watch(ctx, target.project.PHID)
}

func serveMetrics(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
