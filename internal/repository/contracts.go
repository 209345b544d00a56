package repository

import (
	"context"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ExamStore is the read path every pagination strategy goes through.
// I return records in the requested order, never more than q.Limit and never
// the same record twice. Connection failures and deadlines surface as
// ErrStoreUnavailable, contradictory queries as ErrInvalidQuery.
type ExamStore interface {
	Fetch(ctx context.Context, q Query) ([]model.ExamRecord, error)
}

// ExamWriter bulk-loads exams. IDs on the input are ignored; the store
// assigns them from its sequence. It returns how many rows were written.
type ExamWriter interface {
	InsertExams(ctx context.Context, exams []model.ExamRecord) (int, error)
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for stores that support it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}
