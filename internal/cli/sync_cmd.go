package cli

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/ordering"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// syncConcurrency bounds the number of plan fetches in flight.
const syncConcurrency = 4

type syncResult struct {
	project domain.Project
	tasks   int
	links   int
	err     error
}

func newSyncCmd(app *App) *cobra.Command {
	var failFast bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Cache the plans of every configured project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			projects, err := syncTargets(ctx, app)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No projects to sync."))
				return nil
			}

			progress, stop := func(int) {}, func() {}
			if app.interactive() {
				spinner := formatter.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Syncing %d projects...", len(projects)))
				spinner.Start()
				progress = func(done int) {
					spinner.SetMessage(fmt.Sprintf("Synced %d of %d projects...", done, len(projects)))
				}
				stop = spinner.Stop
			}

			results, err := syncPlans(ctx, app, projects, failFast, progress)
			stop()

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, r := range results {
				status := formatter.StyleGreen.Render("✔ cached")
				if r.err != nil {
					failed++
					status = formatter.StyleRed.Render("✖ " + r.err.Error())
				}
				rows = append(rows, []string{r.project.Name, fmt.Sprint(r.tasks), fmt.Sprint(r.links), status})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"PROJECT", "TASKS", "LINKS", "STATUS"}, rows))

			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d projects failed to sync", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first failed project")

	return cmd
}

// syncTargets returns the projects named in the config, or every project on
// the server when the config names none. The project list is refreshed
// either way so names resolve.
func syncTargets(ctx context.Context, app *App) ([]domain.Project, error) {
	all, err := syncProjects(ctx, app)
	if err != nil {
		return nil, err
	}
	if len(app.Config.Projects) == 0 {
		return all, nil
	}

	var targets []domain.Project
	for _, want := range app.Config.Projects {
		p, err := resolveProject(ctx, app, want)
		if err != nil {
			return nil, fmt.Errorf("configured project %q: %w", want, err)
		}
		targets = append(targets, p)
	}
	return targets, nil
}

// syncPlans fetches and caches every project concurrently. Results keep the
// order of projects. Unless failFast is set a failing project does not stop
// the others.
func syncPlans(ctx context.Context, app *App, projects []domain.Project, failFast bool, progress func(done int)) ([]syncResult, error) {
	results := make([]syncResult, len(projects))
	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)

	for i, p := range projects {
		results[i].project = p
		g.Go(func() error {
			defer func() { progress(int(done.Add(1))) }()
			snap, err := app.Client.Snapshot(gctx, p.PHID, app.Config.IncludeClosed)
			if err == nil {
				snap = ordering.Order(snap)
				err = app.Cache.SaveSnapshot(gctx, p.PHID, snap)
			}
			if err != nil {
				results[i].err = err
				app.Logger.Sugar().Warnw("sync failed", "project", p.PHID, "error", err)
				if failFast {
					return fmt.Errorf("syncing %s: %w", p.Name, err)
				}
				return nil
			}
			results[i].tasks, results[i].links = len(snap.Tasks), len(snap.Links)
			return nil
		})
	}

	return results, g.Wait()
}
