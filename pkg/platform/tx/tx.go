// Package tx carries the active unit of work through a context.
//
// Stores never open transactions themselves. They ask the context for the
// current executor (From) and fall back to the pool, so the service decides
// where an atomic unit begins and ends through a Runner.
package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "sigcerh/pkg/domain-errors"
)

type ctxKey struct{}

type memKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// InUnit reports whether ctx belongs to an open unit of work of either runner.
func InUnit(ctx context.Context) bool {
	if _, ok := From(ctx); ok {
		return true
	}
	_, ok := ctx.Value(memKey{}).(*MemoryRunner)
	return ok
}

// Runner executes fn as one atomic unit. Nested calls join the outer unit.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// SQLRunner opens a database/sql transaction per unit of work.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLRunner builds a runner over db. A zero timeout uses the default.
func NewSQLRunner(db *sql.DB, timeout time.Duration) *SQLRunner {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &SQLRunner{db: db, timeout: timeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Snapshotter is implemented by in-memory stores taking part in a
// MemoryRunner unit. Snapshot captures current state and returns a function
// restoring it.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryRunner serializes units of work over in-memory stores and rolls every
// participant back when fn fails.
type MemoryRunner struct {
	mu           sync.Mutex
	participants []Snapshotter
}

func NewMemoryRunner(participants ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{participants: participants}
}

// Register adds participants after construction.
func (r *MemoryRunner) Register(participants ...Snapshotter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = append(r.participants, participants...)
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if owner, ok := ctx.Value(memKey{}).(*MemoryRunner); ok && owner == r {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.participants))
	for _, p := range r.participants {
		restores = append(restores, p.Snapshot())
	}
	if err := fn(context.WithValue(ctx, memKey{}, r)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}
