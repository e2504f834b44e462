package refresh

import (
	"context"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// Source produces candidate snapshots for a project.
type Source interface {
	Fetch(ctx context.Context, projectID string) (domain.Snapshot, error)
}

// Update is handed to the Renderer whenever the visible snapshot changes.
// The renderer drops exactly the removed ids, then re-ingests Snapshot while
// keeping its own collapse and scroll state.
type Update struct {
	ProjectID      string
	Snapshot       domain.Snapshot
	Version        uint64
	RemovedTaskIDs []string
	RemovedLinkIDs []string

	// Rollback marks a redraw of the last known-good snapshot after a
	// rejected edit.
	Rollback bool
	// Cached marks a snapshot restored from the local cache before the
	// first successful fetch.
	Cached bool
}

// Renderer draws snapshots.
type Renderer interface {
	Render(ctx context.Context, update Update)
}

// Level is the severity of a user-facing notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a message surfaced to the user.
type Notification struct {
	Level     Level
	ProjectID string
	Message   string
	Err       error
}

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Cache persists the last applied snapshot per project.
type Cache interface {
	LoadSnapshot(ctx context.Context, projectID string) (domain.Snapshot, error)
	SaveSnapshot(ctx context.Context, projectID string, snapshot domain.Snapshot) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, update Update)

func (f RendererFunc) Render(ctx context.Context, update Update) { f(ctx, update) }

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }
