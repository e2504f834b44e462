package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/daedaleanai/pgantt/internal/db"
	"github.com/daedaleanai/pgantt/internal/domain"
)

// SQLiteSettingsRepo implements SettingsRepo using a SQLite database.
type SQLiteSettingsRepo struct {
	db db.DBTX
}

// NewSQLiteSettingsRepo creates a new SQLiteSettingsRepo.
func NewSQLiteSettingsRepo(conn db.DBTX) *SQLiteSettingsRepo {
	return &SQLiteSettingsRepo{db: conn}
}

func (r *SQLiteSettingsRepo) Get(ctx context.Context, profile string) (domain.Settings, error) {
	query := `SELECT zoom, start_date, end_date, show_outside, show_unscheduled, show_closed,
		COALESCE(default_project, '')
		FROM settings WHERE profile = ?`
	row := r.db.QueryRowContext(ctx, query, profile)

	var (
		s                            domain.Settings
		zoom                         string
		start, end                   sql.NullString
		outside, unscheduled, closed int
	)
	err := row.Scan(&zoom, &start, &end, &outside, &unscheduled, &closed, &s.DefaultProject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settings{}, fmt.Errorf("settings %s: %w", profile, ErrNotFound)
		}
		return domain.Settings{}, fmt.Errorf("scanning settings: %w", err)
	}

	s.Zoom = domain.Zoom(zoom)
	s.StartDate = parseNullableDate(start, domain.DateLayout)
	s.EndDate = parseNullableDate(end, domain.DateLayout)
	s.ShowTasksOutsideTimescale = intToBool(outside)
	s.ShowTasksUnscheduled = intToBool(unscheduled)
	s.ShowTasksClosed = intToBool(closed)
	return s, nil
}

// GetOrDefault returns the stored settings, or domain.DefaultSettings when
// the profile has never been saved.
func (r *SQLiteSettingsRepo) GetOrDefault(ctx context.Context, profile string) (domain.Settings, error) {
	s, err := r.Get(ctx, profile)
	if errors.Is(err, ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	return s, err
}

func (r *SQLiteSettingsRepo) Save(ctx context.Context, profile string, s domain.Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	query := `INSERT INTO settings (profile, zoom, start_date, end_date, show_outside,
		show_unscheduled, show_closed, default_project, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			zoom = excluded.zoom,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			show_outside = excluded.show_outside,
			show_unscheduled = excluded.show_unscheduled,
			show_closed = excluded.show_closed,
			default_project = excluded.default_project,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		profile,
		string(s.Zoom),
		nullableDate(s.StartDate, domain.DateLayout),
		nullableDate(s.EndDate, domain.DateLayout),
		boolToInt(s.ShowTasksOutsideTimescale),
		boolToInt(s.ShowTasksUnscheduled),
		boolToInt(s.ShowTasksClosed),
		s.DefaultProject,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upserting settings: %w", err)
	}
	return nil
}
