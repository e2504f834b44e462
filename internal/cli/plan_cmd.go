package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/ordering"
	"github.com/daedaleanai/pgantt/internal/reconcile"
	"github.com/daedaleanai/pgantt/internal/repository"
	"github.com/daedaleanai/pgantt/internal/view"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	var closed, asJSON, gantt, offline bool

	cmd := &cobra.Command{
		Use:   "plan [project]",
		Short: "Fetch, order and print a project plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			project, err := resolveProject(ctx, app, firstArg(args))
			if err != nil {
				return err
			}

			includeClosed := closed || app.Config.IncludeClosed
			snap, fetchedAt, err := loadPlan(ctx, app, project.PHID, includeClosed, offline)
			if err != nil {
				return err
			}
			ordered := ordering.Order(snap)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ordered)
			}

			settings, err := app.Settings.GetOrDefault(ctx, repository.DefaultProfile)
			if err != nil {
				return err
			}
			if closed {
				settings.ShowTasksClosed = true
			}

			fmt.Fprintln(out, formatter.Header(project.Name))
			if offline {
				fmt.Fprintln(out, formatter.Dim("cached "+fetchedAt.Local().Format(time.DateTime)))
			}
			fmt.Fprintln(out)
			printPlan(out, ordered, settings, gantt, app.Now())
			printLinkProblems(out, ordered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&closed, "closed", false, "Include closed tasks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the ordered snapshot as JSON")
	cmd.Flags().BoolVar(&gantt, "gantt", false, "Print a gantt chart instead of a tree")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the snapshot cached by the last fetch")

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// loadPlan fetches a project snapshot from the server and caches it, or reads
// the cached copy when offline is set.
func loadPlan(ctx context.Context, app *App, phid string, includeClosed, offline bool) (domain.Snapshot, time.Time, error) {
	if offline {
		cached, err := app.Snapshots.Get(ctx, phid)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snapshot{}, time.Time{}, fmt.Errorf("no cached plan for %s, run 'pgantt sync' first: %w", phid, err)
		}
		if err != nil {
			return domain.Snapshot{}, time.Time{}, err
		}
		return cached.Snapshot, cached.FetchedAt, nil
	}

	if err := app.requireServer(); err != nil {
		return domain.Snapshot{}, time.Time{}, err
	}
	snap, err := app.Client.Snapshot(ctx, phid, includeClosed)
	if err != nil {
		return domain.Snapshot{}, time.Time{}, fmt.Errorf("fetching plan: %w", err)
	}
	if err := app.Cache.SaveSnapshot(ctx, phid, ordering.Order(snap)); err != nil {
		app.Logger.Sugar().Warnw("caching plan failed", "project", phid, "error", err)
	}
	return snap, app.Now(), nil
}

func printPlan(out io.Writer, ordered domain.Snapshot, settings domain.Settings, gantt bool, now time.Time) {
	visible := view.Filter(ordered, settings)
	if len(visible.Tasks) == 0 {
		fmt.Fprintln(out, formatter.Dim("No tasks to show."))
		return
	}

	items := formatter.BuildTree(visible, nil)
	if gantt {
		from, to := view.Window(visible, settings, now)
		fmt.Fprint(out, formatter.RenderGantt(items, formatter.GanttOptions{
			From:   from,
			To:     to,
			Zoom:   settings.Zoom,
			Cursor: -1,
		}))
	} else {
		for i := range items {
			items[i].Detail = taskDetail(items[i].Task)
		}
		fmt.Fprint(out, formatter.RenderTree(items))
	}

	summary := fmt.Sprintf("\n%d tasks, %d links", len(visible.Tasks), len(visible.Links))
	if hidden := len(ordered.Tasks) - len(visible.Tasks); hidden > 0 {
		summary += fmt.Sprintf(" (%d hidden by settings)", hidden)
	}
	fmt.Fprintln(out, formatter.Dim(summary))
}

func taskDetail(t domain.Task) string {
	parts := []string{formatter.FormatStart(t)}
	if t.Type != domain.TaskTypeMilestone {
		parts = append(parts, formatter.FormatDays(t.Duration))
	}
	if t.Type != "" && t.Type != domain.TaskTypeTask {
		parts = append(parts, formatter.TaskTypeBadge(t.Type))
	}
	if t.Progress > 0 {
		parts = append(parts, formatter.RenderProgress(t.Progress, 10))
	}
	if !t.Open {
		parts = append(parts, formatter.StatusPill(false))
	}
	return strings.Join(parts, " · ")
}

func printLinkProblems(out io.Writer, s domain.Snapshot) {
	problems, err := reconcile.ValidateLinks(s)
	for _, p := range problems {
		fmt.Fprintln(out, formatter.StyleYellow.Render(fmt.Sprintf("warning: link %s: %s", p.LinkID, p.Message)))
	}
	if err != nil {
		fmt.Fprintln(out, formatter.StyleYellow.Render("warning: "+err.Error()))
	}
}
