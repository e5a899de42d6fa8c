package txmanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/platform/postgres"
	"github.com/jmoiron/sqlx"
)

// Manager runs a unit of work. Everything fn writes through repositories commits together
// or not at all. Nested calls join the outer unit of work.
type Manager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Executor is the query surface shared by *sqlx.DB and *sqlx.Tx.
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

type txKey struct{}

type SQLManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

type Option func(*SQLManager)

// WithIsolation sets the isolation level of every transaction started by the manager.
func WithIsolation(level sql.IsolationLevel) Option {
	return func(m *SQLManager) {
		m.opts = &sql.TxOptions{Isolation: level}
	}
}

func New(db *sqlx.DB, opts ...Option) *SQLManager {
	m := &SQLManager{db: db}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SQLManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// ExecutorFrom returns the transaction bound to ctx, or db when ctx carries none.
func ExecutorFrom(ctx context.Context, db *sqlx.DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

func classify(err error) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if postgres.IsConcurrencyFailure(err) {
		return apperr.Wrap(apperr.KindConflict, "tx", err)
	}
	return err
}
