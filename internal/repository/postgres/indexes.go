package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/sqlquery"
)

type indexProvisioner struct{ pool *pgxpool.Pool }

// NewIndexProvisioner applies index plans to the exams table.
func NewIndexProvisioner(pool *pgxpool.Pool) indexplan.Provisioner {
	return &indexProvisioner{pool: pool}
}

func (p *indexProvisioner) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ensurePool(p.pool); err != nil {
		return false, err
	}
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM pg_indexes
		   WHERE schemaname = current_schema() AND tablename = $1 AND indexname = $2
		 )`,
		sqlquery.Table, name,
	).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (p *indexProvisioner) CreateIndex(ctx context.Context, idx indexplan.Index) error {
	if err := ensurePool(p.pool); err != nil {
		return err
	}
	stmt, err := createIndexSQL(idx)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		// a concurrent apply may win the race between IF NOT EXISTS and the catalog insert
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == pgerrcode.DuplicateTable || pgErr.Code == pgerrcode.UniqueViolation) {
			return nil
		}
		return repository.MapPgError(err)
	}
	return nil
}

func createIndexSQL(idx indexplan.Index) (string, error) {
	cols := make([]string, len(idx.Keys))
	for i, k := range idx.Keys {
		col, err := sqlquery.Column(k.Field)
		if err != nil {
			return "", err
		}
		cols[i] = pgx.Identifier{col}.Sanitize() + " " + k.Direction.String()
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique,
		pgx.Identifier{idx.Name}.Sanitize(),
		pgx.Identifier{sqlquery.Table}.Sanitize(),
		strings.Join(cols, ", "),
	), nil
}
