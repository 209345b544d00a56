package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/sqlquery"
)

// insertBatchSize keeps one multi-row INSERT well under max_allowed_packet
// and the 65535 placeholder limit.
const insertBatchSize = 500

// ExamRepository reads and bulk-loads the exams table over database/sql.
type ExamRepository struct {
	db *sql.DB
}

func NewExamRepository(db *sql.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

func ensureDB(db *sql.DB) error {
	if db == nil {
		return errors.New("mysql db is nil")
	}
	return nil
}

func (r *ExamRepository) Fetch(ctx context.Context, query repository.Query) ([]model.ExamRecord, error) {
	if err := ensureDB(r.db); err != nil {
		return nil, repository.Unavailable(err)
	}
	stmt, args, err := sqlquery.Build(sqlquery.Question, query)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	out := make([]model.ExamRecord, 0, query.Limit)
	for rows.Next() {
		rec, err := sqlquery.ScanExam(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// InsertExams writes exams in multi-row batches inside one transaction.
func (r *ExamRepository) InsertExams(ctx context.Context, exams []model.ExamRecord) (int, error) {
	if err := ensureDB(r.db); err != nil {
		return 0, repository.Unavailable(err)
	}
	if len(exams) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, MapError(err)
	}
	defer func() { _ = tx.Rollback() }()

	total := 0
	for start := 0; start < len(exams); start += insertBatchSize {
		batch := exams[start:min(start+insertBatchSize, len(exams))]
		stmt, args := insertStatement(batch)
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, MapError(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, MapError(err)
		}
		total += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, MapError(err)
	}
	return total, nil
}

func insertStatement(batch []model.ExamRecord) (string, []any) {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(sqlquery.InsertColumns)), ", ") + ")"
	rows := make([]string, len(batch))
	args := make([]any, 0, len(batch)*len(sqlquery.InsertColumns))
	for i, rec := range batch {
		rows[i] = row
		args = append(args, sqlquery.InsertValues(rec)...)
	}
	return "INSERT INTO " + sqlquery.Table + " (" + strings.Join(sqlquery.InsertColumns, ", ") + ") VALUES " +
		strings.Join(rows, ", "), args
}

type pinger struct{ db *sql.DB }

func NewPinger(db *sql.DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error {
	if err := ensureDB(p.db); err != nil {
		return repository.Unavailable(err)
	}
	if err := p.db.PingContext(ctx); err != nil {
		return repository.Unavailable(MapError(err))
	}
	return nil
}

var (
	_ repository.ExamStore  = (*ExamRepository)(nil)
	_ repository.ExamWriter = (*ExamRepository)(nil)
)
