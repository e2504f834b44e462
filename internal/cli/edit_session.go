package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/daedaleanai/pgantt/internal/cli/formatter"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/edit"
	"github.com/daedaleanai/pgantt/internal/refresh"
	"github.com/daedaleanai/pgantt/internal/source"
	"github.com/daedaleanai/pgantt/internal/store"
)

// editSession runs one edit against a project. Accepted edits are followed
// by a refresh through a short-lived controller, which also keeps the
// snapshot cache current.
type editSession struct {
	service    *edit.Service
	controller *refresh.Controller

	mu    sync.Mutex
	last  *refresh.Update
	notes []refresh.Notification
}

func newEditSession(app *App, projectID string) *editSession {
	s := &editSession{}
	st := store.New()
	st.Select(projectID)

	s.controller = refresh.New(st,
		source.NewHTTP(app.Client, app.Config.IncludeClosed),
		refresh.RendererFunc(s.render),
		refresh.NotifierFunc(s.notify),
		refresh.Options{
			Observer: app.Observer,
			Metrics:  app.Metrics,
			Cache:    app.Cache,
		})
	s.service = edit.NewService(app.Client, s.controller, refresh.NotifierFunc(s.notify), edit.Options{
		Observer: app.Observer,
		Metrics:  app.Metrics,
	})
	return s
}

func (s *editSession) render(_ context.Context, u refresh.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &u
}

func (s *editSession) notify(_ context.Context, n refresh.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

// report prints what happened after an accepted edit: notifications raised
// by the follow-up refresh and the size of the refreshed plan.
func (s *editSession) report(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notes {
		msg := fmt.Sprintf("%s: %s", n.Level, n.Message)
		if n.Err != nil {
			msg += ": " + n.Err.Error()
		}
		fmt.Fprintln(w, formatter.StyleYellow.Render(msg))
	}
	if s.last != nil && !s.last.Rollback {
		fmt.Fprintln(w, formatter.Dim(fmt.Sprintf("plan refreshed: %d tasks, %d links",
			len(s.last.Snapshot.Tasks), len(s.last.Snapshot.Links))))
	}
}

// currentTask fetches the project and returns the task with id.
func currentTask(ctx context.Context, app *App, projectID, id string) (domain.Task, error) {
	snap, err := app.Client.Snapshot(ctx, projectID, true)
	if err != nil {
		return domain.Task{}, fmt.Errorf("fetching plan: %w", err)
	}
	task, ok := snap.TaskByID(domain.CanonicalID(id))
	if !ok {
		return domain.Task{}, fmt.Errorf("task %s not found in %s", id, projectID)
	}
	return task, nil
}
