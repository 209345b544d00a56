// Package memory is an in-process exam store. It backs the fixture tests and
// the memory driver, and follows the same contract as the database adapters.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// ExamStore keeps exams ordered by id. Reads copy the slice header under a
// read lock and filter outside of it.
type ExamStore struct {
	mu      sync.RWMutex
	records []model.ExamRecord
	lastID  int64
	down    error
}

// NewExamStore returns a store holding records. An id above the current
// sequence is kept and moves the sequence forward; any other id is replaced
// by the next one in sequence.
func NewExamStore(records ...model.ExamRecord) *ExamStore {
	s := &ExamStore{}
	for _, r := range records {
		s.insert(r)
	}
	return s
}

// Insert adds r and returns it with its assigned id.
func (s *ExamStore) Insert(r model.ExamRecord) model.ExamRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(r)
}

func (s *ExamStore) insert(r model.ExamRecord) model.ExamRecord {
	if r.ID <= s.lastID {
		r.ID = s.lastID + 1
	}
	s.lastID = r.ID
	// ids only grow, so appending keeps the slice ordered
	s.records = append(s.records, r)
	return r
}

// InsertExams implements repository.ExamWriter.
func (s *ExamStore) InsertExams(ctx context.Context, exams []model.ExamRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, repository.MapContextError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range exams {
		r.ID = 0
		s.insert(r)
	}
	return len(exams), nil
}

// Len returns the number of stored exams.
func (s *ExamStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// SetUnavailable makes every call fail with err wrapped as
// repository.ErrStoreUnavailable until it is called again with nil.
func (s *ExamStore) SetUnavailable(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = err
}

// Ping implements repository.Pinger.
func (s *ExamStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return repository.MapContextError(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return repository.Unavailable(s.down)
}

// Fetch implements repository.ExamStore.
func (s *ExamStore) Fetch(ctx context.Context, q repository.Query) ([]model.ExamRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, repository.MapContextError(err)
	}

	s.mu.RLock()
	snapshot, down := s.records, s.down
	s.mu.RUnlock()
	if down != nil {
		return nil, repository.Unavailable(down)
	}

	type keyed struct {
		key []any
		rec model.ExamRecord
	}
	matched := make([]keyed, 0)
	for _, r := range snapshot {
		key, ok := q.Match(r)
		if !ok {
			continue
		}
		matched = append(matched, keyed{key: key, rec: r})
	}

	slices.SortFunc(matched, func(a, b keyed) int {
		c := repository.CompareTuples(a.key, b.key)
		if q.Direction == repository.Desc {
			return -c
		}
		return c
	})

	if q.Skip >= len(matched) {
		return []model.ExamRecord{}, nil
	}
	matched = matched[q.Skip:]
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]model.ExamRecord, len(matched))
	for i, m := range matched {
		out[i] = m.rec
	}
	if err := ctx.Err(); err != nil {
		return nil, repository.MapContextError(err)
	}
	return out, nil
}

var (
	_ repository.ExamStore  = (*ExamStore)(nil)
	_ repository.ExamWriter = (*ExamStore)(nil)
	_ repository.Pinger     = (*ExamStore)(nil)
)
