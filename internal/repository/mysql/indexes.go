package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/sqlquery"
)

type indexProvisioner struct{ db *sql.DB }

// NewIndexProvisioner applies index plans to the exams table. MySQL has no
// CREATE INDEX IF NOT EXISTS, so an existing name is detected from the error.
func NewIndexProvisioner(db *sql.DB) indexplan.Provisioner {
	return &indexProvisioner{db: db}
}

func (p *indexProvisioner) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := ensureDB(p.db); err != nil {
		return false, repository.Unavailable(err)
	}
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.statistics
		 WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`,
		sqlquery.Table, name,
	).Scan(&n)
	if err != nil {
		return false, MapError(err)
	}
	return n > 0, nil
}

func (p *indexProvisioner) CreateIndex(ctx context.Context, idx indexplan.Index) error {
	if err := ensureDB(p.db); err != nil {
		return repository.Unavailable(err)
	}
	stmt, err := createIndexSQL(idx)
	if err != nil {
		return err
	}
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		if isDuplicateKeyName(err) {
			return nil
		}
		return MapError(err)
	}
	return nil
}

func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func createIndexSQL(idx indexplan.Index) (string, error) {
	cols := make([]string, len(idx.Keys))
	for i, k := range idx.Keys {
		col, err := sqlquery.Column(k.Field)
		if err != nil {
			return "", err
		}
		cols[i] = quote(col) + " " + k.Direction.String()
	}
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, quote(idx.Name), quote(sqlquery.Table), strings.Join(cols, ", ")), nil
}
