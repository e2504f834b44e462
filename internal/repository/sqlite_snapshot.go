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

// SQLiteSnapshotRepo stores the last applied snapshot of each project, one
// row per task and link in snapshot order. Save issues several statements;
// run it inside a UnitOfWork.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

// NewSQLiteSnapshotRepo creates a new SQLiteSnapshotRepo.
func NewSQLiteSnapshotRepo(conn db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: conn}
}

func (r *SQLiteSnapshotRepo) Save(ctx context.Context, projectID string, s domain.Snapshot, fetchedAt time.Time) error {
	if err := r.Delete(ctx, projectID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshots (project_id, task_count, link_count, fetched_at) VALUES (?, ?, ?, ?)`,
		projectID, len(s.Tasks), len(s.Links), formatTime(fetchedAt))
	if err != nil {
		return fmt.Errorf("inserting snapshot %s: %w", projectID, err)
	}

	for i, t := range s.Tasks {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding task %s: %w", t.ID, err)
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO snapshot_tasks (project_id, position, task_id, payload) VALUES (?, ?, ?, ?)`,
			projectID, i, t.ID, string(payload))
		if err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	for i, l := range s.Links {
		payload, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("encoding link %s: %w", l.ID, err)
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO snapshot_links (project_id, position, link_id, payload) VALUES (?, ?, ?, ?)`,
			projectID, i, l.ID, string(payload))
		if err != nil {
			return fmt.Errorf("inserting link %s: %w", l.ID, err)
		}
	}
	return nil
}

func (r *SQLiteSnapshotRepo) Get(ctx context.Context, projectID string) (CachedSnapshot, error) {
	var (
		fetchedAt            string
		taskCount, linkCount int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT task_count, link_count, fetched_at FROM snapshots WHERE project_id = ?`, projectID,
	).Scan(&taskCount, &linkCount, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CachedSnapshot{}, fmt.Errorf("snapshot %s: %w", projectID, ErrNotFound)
		}
		return CachedSnapshot{}, fmt.Errorf("scanning snapshot: %w", err)
	}

	out := CachedSnapshot{ProjectID: projectID, FetchedAt: parseTime(fetchedAt)}
	out.Snapshot.Tasks = make([]domain.Task, 0, taskCount)
	out.Snapshot.Links = make([]domain.Link, 0, linkCount)

	if err := r.loadRows(ctx, `SELECT payload FROM snapshot_tasks WHERE project_id = ? ORDER BY position`, projectID,
		func(payload []byte) error {
			var t domain.Task
			if err := json.Unmarshal(payload, &t); err != nil {
				return fmt.Errorf("decoding cached task: %w", err)
			}
			out.Snapshot.Tasks = append(out.Snapshot.Tasks, t)
			return nil
		}); err != nil {
		return CachedSnapshot{}, err
	}

	if err := r.loadRows(ctx, `SELECT payload FROM snapshot_links WHERE project_id = ? ORDER BY position`, projectID,
		func(payload []byte) error {
			var l domain.Link
			if err := json.Unmarshal(payload, &l); err != nil {
				return fmt.Errorf("decoding cached link: %w", err)
			}
			out.Snapshot.Links = append(out.Snapshot.Links, l)
			return nil
		}); err != nil {
		return CachedSnapshot{}, err
	}
	return out, nil
}

func (r *SQLiteSnapshotRepo) loadRows(ctx context.Context, query, projectID string, fn func([]byte) error) error {
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("querying snapshot rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scanning snapshot row: %w", err)
		}
		if err := fn([]byte(payload)); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *SQLiteSnapshotRepo) Delete(ctx context.Context, projectID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", projectID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", projectID, err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s: %w", projectID, ErrNotFound)
	}
	return nil
}

// SnapshotCache adapts SQLiteSnapshotRepo to the refresh controller's cache,
// saving each snapshot in its own transaction.
type SnapshotCache struct {
	uow  db.UnitOfWork
	read *SQLiteSnapshotRepo
	now  func() time.Time
}

// NewSnapshotCache creates a SnapshotCache. conn serves reads, uow writes.
func NewSnapshotCache(conn db.DBTX, uow db.UnitOfWork) *SnapshotCache {
	return &SnapshotCache{uow: uow, read: NewSQLiteSnapshotRepo(conn), now: time.Now}
}

func (c *SnapshotCache) LoadSnapshot(ctx context.Context, projectID string) (domain.Snapshot, error) {
	cached, err := c.read.Get(ctx, projectID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return cached.Snapshot, nil
}

func (c *SnapshotCache) SaveSnapshot(ctx context.Context, projectID string, s domain.Snapshot) error {
	return c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return NewSQLiteSnapshotRepo(tx).Save(ctx, projectID, s, c.now())
	})
}
