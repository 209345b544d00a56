package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// conn is what the exam repository needs from either the pool or an open
// transaction.
type conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

type txKey struct{}

// connFrom returns the transaction carried by ctx, or the pool.
func connFrom(ctx context.Context, pool *pgxpool.Pool) conn {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok && tx != nil {
		return tx
	}
	return pool
}

type txManager struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTxManager runs units of work at read committed. Bulk loads append with
// fresh ids and never read what they write, so nothing stronger is needed.
func NewTxManager(pool *pgxpool.Pool) repository.TxManager {
	return &txManager{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if err := ensurePool(m.pool); err != nil {
		return repository.Unavailable(err)
	}
	tx, err := m.pool.BeginTx(ctx, m.opts)
	if err != nil {
		return repository.MapPgError(err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return repository.MapPgError(err)
	}
	return repository.MapPgError(tx.Commit(ctx))
}

var _ repository.TxManager = (*txManager)(nil)

func ensurePool(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pgx pool is nil")
	}
	return nil
}
