package edit

import (
	"context"
	"fmt"
	"time"

	"github.com/daedaleanai/pgantt/internal/client"
	"github.com/daedaleanai/pgantt/internal/domain"
	"github.com/daedaleanai/pgantt/internal/metrics"
	"github.com/daedaleanai/pgantt/internal/observe"
	"github.com/daedaleanai/pgantt/internal/refresh"
)

// Submitter sends edits to the planning server. *client.Client satisfies it.
type Submitter interface {
	CreateTask(ctx context.Context, projectID string, task domain.Task) (client.ActionStatus, error)
	UpdateTask(ctx context.Context, projectID string, task domain.Task) (client.ActionStatus, error)
	CreateLink(ctx context.Context, projectID string, link domain.Link) (client.ActionStatus, error)
	DeleteLink(ctx context.Context, projectID, linkID string) (client.ActionStatus, error)
}

// Refresher is the part of the refresh controller an edit needs: a redraw
// of the last known-good snapshot and a follow-up refresh.
type Refresher interface {
	Rollback(ctx context.Context)
	Request(ctx context.Context, projectID string) (refresh.Result, error)
}

// Options configures a Service.
type Options struct {
	Observer observe.Observer
	Metrics  *metrics.Metrics
}

// Service submits task and link edits. Accepted edits never touch the Store
// directly: they are picked up by the refresh that follows. A rejected edit
// is reported and the renderer is rolled back to the last known-good
// snapshot.
type Service struct {
	submit    Submitter
	refresher Refresher
	notifier  refresh.Notifier
	observer  observe.Observer
	metrics   *metrics.Metrics
}

// NewService creates an edit Service.
func NewService(submit Submitter, refresher Refresher, notifier refresh.Notifier, opts Options) *Service {
	if notifier == nil {
		notifier = refresh.NotifierFunc(func(context.Context, refresh.Notification) {})
	}
	return &Service{
		submit:    submit,
		refresher: refresher,
		notifier:  notifier,
		observer:  observe.OrNoop(opts.Observer),
		metrics:   opts.Metrics,
	}
}

// CreateTask submits a new task and returns the id assigned by the server.
func (s *Service) CreateTask(ctx context.Context, projectID string, task domain.Task) (string, error) {
	task = NormalizeTask(task)
	if err := validateTask(task, true); err != nil {
		return "", s.reject(ctx, "create_task", projectID, err)
	}
	status, err := s.run(ctx, "create_task", projectID, func() (client.ActionStatus, error) {
		return s.submit.CreateTask(ctx, projectID, task)
	})
	return status.Tid, err
}

// UpdateTask submits changes to an existing task.
func (s *Service) UpdateTask(ctx context.Context, projectID string, task domain.Task) error {
	task = NormalizeTask(task)
	if err := validateTask(task, false); err != nil {
		return s.reject(ctx, "update_task", projectID, err)
	}
	_, err := s.run(ctx, "update_task", projectID, func() (client.ActionStatus, error) {
		return s.submit.UpdateTask(ctx, projectID, task)
	})
	return err
}

// DeleteTask always fails without contacting the server.
func (s *Service) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return s.reject(ctx, "delete_task", projectID,
		fmt.Errorf("task %s: %w", domain.CanonicalID(taskID), ErrTaskDeletionUnsupported))
}

// CreateLink submits a new dependency link and returns its id.
func (s *Service) CreateLink(ctx context.Context, projectID string, link domain.Link) (string, error) {
	link = NormalizeLink(link)
	if err := validateLink(link); err != nil {
		return "", s.reject(ctx, "create_link", projectID, err)
	}
	status, err := s.run(ctx, "create_link", projectID, func() (client.ActionStatus, error) {
		return s.submit.CreateLink(ctx, projectID, link)
	})
	if err != nil {
		return "", err
	}
	if status.Tid == "" {
		return link.ID, nil
	}
	return status.Tid, nil
}

// UpdateLink always fails without contacting the server.
func (s *Service) UpdateLink(ctx context.Context, projectID, linkID string) error {
	return s.reject(ctx, "update_link", projectID,
		fmt.Errorf("link %s: %w", linkID, ErrLinkUpdateUnsupported))
}

// DeleteLink removes a dependency link.
func (s *Service) DeleteLink(ctx context.Context, projectID, linkID string) error {
	if _, _, _, err := domain.ParseLinkID(linkID); err != nil {
		return s.reject(ctx, "delete_link", projectID, fmt.Errorf("%w: %v", ErrInvalidEdit, err))
	}
	_, err := s.run(ctx, "delete_link", projectID, func() (client.ActionStatus, error) {
		return s.submit.DeleteLink(ctx, projectID, linkID)
	})
	return err
}

// run submits one edit. On success the project is refreshed; on failure the
// edit is rejected locally.
func (s *Service) run(ctx context.Context, op, projectID string, fn func() (client.ActionStatus, error)) (client.ActionStatus, error) {
	start := time.Now()
	status, err := fn()
	s.metrics.RecordEdit(op, err)
	s.observer.Observe(ctx, observe.Event{
		Name:      "edit",
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		StartedAt: start,
		Fields: map[string]any{
			"operation": op,
			"project":   projectID,
			"action":    status.Action,
			"tid":       status.Tid,
		},
	})
	if err != nil {
		s.rollback(ctx, op, projectID, err)
		s.refresh(ctx, projectID)
		return client.ActionStatus{}, fmt.Errorf("%s: %w", op, err)
	}

	s.refresh(ctx, projectID)
	return status, nil
}

// reject fails an edit that is never sent to the server.
func (s *Service) reject(ctx context.Context, op, projectID string, err error) error {
	s.metrics.RecordEdit(op, err)
	s.observer.Observe(ctx, observe.Event{
		Name:      "edit",
		Err:       err,
		StartedAt: time.Now(),
		Fields:    map[string]any{"operation": op, "project": projectID},
	})
	s.rollback(ctx, op, projectID, err)
	return err
}

func (s *Service) rollback(ctx context.Context, op, projectID string, err error) {
	s.notifier.Notify(ctx, refresh.Notification{
		Level:     refresh.LevelError,
		ProjectID: projectID,
		Message:   fmt.Sprintf("Edit rejected (%s)", op),
		Err:       err,
	})
	if s.refresher != nil {
		s.refresher.Rollback(ctx)
	}
}

func (s *Service) refresh(ctx context.Context, projectID string) {
	if s.refresher == nil {
		return
	}
	// Refresh failures are reported by the controller itself.
	_, _ = s.refresher.Request(ctx, projectID)
}
