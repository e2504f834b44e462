package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/daedaleanai/pgantt/internal/db"
)

// FailOnNthExecUoW runs fn in a real transaction whose FailOn-th ExecContext
// call returns Err. Reads are not counted. It exercises the rollback of
// multi-statement writes such as saving a snapshot.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingExec{DBTX: tx, failOn: u.FailOn, err: u.Err})
	})
}

// failingExec is used from a single goroutine, the one running the
// transaction.
type failingExec struct {
	db.DBTX
	execs  int
	failOn int
	err    error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.execs++
	if f.execs == f.failOn {
		return nil, fmt.Errorf("exec %d: %w", f.execs, f.err)
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
