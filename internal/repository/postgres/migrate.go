package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/migrations"
)

// Migrate brings the schema up to date. goose records applied versions, so
// repeated runs are no-ops.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if err := ensurePool(pool); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrations.PostgresDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
