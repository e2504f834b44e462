package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/daedaleanai/pgantt/internal/db"
	"github.com/daedaleanai/pgantt/internal/domain"
)

// SQLiteProjectRepo caches the server's project list.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

func (r *SQLiteProjectRepo) Upsert(ctx context.Context, p domain.Project, syncedAt time.Time) error {
	columns := p.Columns
	if columns == nil {
		columns = []domain.Column{}
	}
	data, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("encoding columns of %s: %w", p.PHID, err)
	}

	query := `INSERT INTO projects (phid, name, columns, synced_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(phid) DO UPDATE SET
			name = excluded.name,
			columns = excluded.columns,
			synced_at = excluded.synced_at`
	if _, err := r.db.ExecContext(ctx, query, p.PHID, p.Name, string(data), formatTime(syncedAt)); err != nil {
		return fmt.Errorf("upserting project %s: %w", p.PHID, err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByPHID(ctx context.Context, phid string) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT phid, name, columns FROM projects WHERE phid = ?`, phid)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("project %s: %w", phid, ErrNotFound)
	}
	return p, err
}

// GetByName matches the project name case-insensitively.
func (r *SQLiteProjectRepo) GetByName(ctx context.Context, name string) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT phid, name, columns FROM projects WHERE name = ? COLLATE NOCASE ORDER BY phid LIMIT 1`, name)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	return p, err
}

func (r *SQLiteProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT phid, name, columns FROM projects ORDER BY name, phid`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (domain.Project, error) {
	var (
		p       domain.Project
		columns string
	)
	if err := s.Scan(&p.PHID, &p.Name, &columns); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, err
		}
		return domain.Project{}, fmt.Errorf("scanning project: %w", err)
	}
	if err := json.Unmarshal([]byte(columns), &p.Columns); err != nil {
		return domain.Project{}, fmt.Errorf("decoding columns of %s: %w", p.PHID, err)
	}
	return p, nil
}
