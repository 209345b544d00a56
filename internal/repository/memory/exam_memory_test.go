package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/contract"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExamStore_Contract(t *testing.T) {
	contract.RunExamStoreContract(t, func(t *testing.T) (repository.ExamStore, repository.ExamWriter, func()) {
		s := memory.NewExamStore()
		return s, s, func() {}
	})
}

func TestMemoryPinger_Contract(t *testing.T) {
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		return memory.NewExamStore(), func() {}
	})
}

func TestNewExamStore_AssignsMonotonicIDs(t *testing.T) {
	s := memory.NewExamStore(
		model.ExamRecord{ID: 1001},
		model.ExamRecord{},
		model.ExamRecord{ID: 5},
	)
	got, err := s.Fetch(context.Background(), repository.Query{Sort: []repository.Field{repository.FieldID}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1001, 1002, 1003}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestExamStore_Unavailable(t *testing.T) {
	s := memory.NewExamStore(model.ExamRecord{})
	s.SetUnavailable(errors.New("connection refused"))

	_, err := s.Fetch(context.Background(), repository.Query{Sort: []repository.Field{repository.FieldID}, Limit: 1})
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), repository.ErrStoreUnavailable)

	s.SetUnavailable(nil)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestExamStore_ConcurrentInsertAndFetch(t *testing.T) {
	s := memory.NewExamStore()
	q := repository.Query{Sort: []repository.Field{repository.FieldID}, Limit: 1000}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Insert(model.ExamRecord{PatientID: "p"})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := s.Fetch(context.Background(), q)
				if err != nil {
					t.Errorf("fetch: %v", err)
					return
				}
				for j := 1; j < len(got); j++ {
					if got[j].ID <= got[j-1].ID {
						t.Errorf("ids out of order at %d: %d after %d", j, got[j].ID, got[j-1].ID)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, s.Len())
}
