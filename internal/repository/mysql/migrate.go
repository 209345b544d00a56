package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/migrations"
)

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := ensureDB(db); err != nil {
		return err
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrations.MySQLDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
