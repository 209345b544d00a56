package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/sqlquery"
)

// ExamRepository reads and bulk-loads the exams table.
type ExamRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool, tx: NewTxManager(pool)}
}

func (r *ExamRepository) Fetch(ctx context.Context, query repository.Query) ([]model.ExamRecord, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, repository.Unavailable(err)
	}
	sql, args, err := sqlquery.Build(sqlquery.Dollar, query)
	if err != nil {
		return nil, err
	}

	rows, err := connFrom(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.ExamRecord, 0, query.Limit)
	for rows.Next() {
		rec, err := sqlquery.ScanExam(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.MapPgError(err)
	}
	return out, nil
}

const copyBatchSize = 10_000

// InsertExams streams exams with COPY, in batches, inside one transaction.
func (r *ExamRepository) InsertExams(ctx context.Context, exams []model.ExamRecord) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, repository.Unavailable(err)
	}
	var total int64
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		// seeded rows can be regenerated, so the load skips the WAL flush wait
		if _, err := connFrom(ctx, r.pool).Exec(ctx, "SET LOCAL synchronous_commit = off"); err != nil {
			return err
		}
		for start := 0; start < len(exams); start += copyBatchSize {
			batch := exams[start:min(start+copyBatchSize, len(exams))]
			n, err := connFrom(ctx, r.pool).CopyFrom(ctx,
				pgx.Identifier{sqlquery.Table},
				sqlquery.InsertColumns,
				pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
					return sqlquery.InsertValues(batch[i]), nil
				}),
			)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

var (
	_ repository.ExamStore  = (*ExamRepository)(nil)
	_ repository.ExamWriter = (*ExamRepository)(nil)
)
