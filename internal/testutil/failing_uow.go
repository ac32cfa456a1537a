package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/jupytutor/internal/db"
)

// FailingUoW is a test UoW that injects Err into the Nth ExecContext call
// whose SQL contains Match (every exec counts when Match is empty). Reads
// pass through, so rollback paths can be exercised at an exact write.
type FailingUoW struct {
	DB     *sql.DB
	Match  string
	FailOn int32
	Err    error

	calls atomic.Int32
}

// Calls reports how many matching execs were seen across transactions.
func (u *FailingUoW) Calls() int {
	return int(u.calls.Load())
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if fnErr := fn(ctx, &failingExec{DBTX: tx, uow: u}); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

type failingExec struct {
	db.DBTX
	uow *FailingUoW
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.uow.Match) && f.uow.calls.Add(1) == f.uow.FailOn {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
