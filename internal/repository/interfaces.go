package repository

import (
	"context"
	"time"

	"github.com/daedaleanai/pgantt/internal/domain"
)

// DefaultProfile is the settings row used when no profile is named.
const DefaultProfile = "default"

type SettingsRepo interface {
	Get(ctx context.Context, profile string) (domain.Settings, error)
	GetOrDefault(ctx context.Context, profile string) (domain.Settings, error)
	Save(ctx context.Context, profile string, s domain.Settings) error
}

type ProjectRepo interface {
	Upsert(ctx context.Context, p domain.Project, syncedAt time.Time) error
	GetByPHID(ctx context.Context, phid string) (domain.Project, error)
	GetByName(ctx context.Context, name string) (domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
}

// CachedSnapshot is a stored snapshot with the time it was fetched.
type CachedSnapshot struct {
	ProjectID string
	Snapshot  domain.Snapshot
	FetchedAt time.Time
}

type SnapshotRepo interface {
	Save(ctx context.Context, projectID string, s domain.Snapshot, fetchedAt time.Time) error
	Get(ctx context.Context, projectID string) (CachedSnapshot, error)
	Delete(ctx context.Context, projectID string) error
}
