// Package contract holds behaviour suites every exam store adapter must pass.
// Each adapter's tests call RunExamStoreContract with a factory that returns
// an empty store.
package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// ExamStoreFactory returns an empty store, a writer into the same store and
// a cleanup func.
type ExamStoreFactory func(t *testing.T) (store repository.ExamStore, writer repository.ExamWriter, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

// Base is the creation time of the first fixture exam.
var Base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// FixtureExams returns twelve exams created an hour apart, except the 5th to
// 7th which share one timestamp. Statuses cycle COMPLETED, PENDING,
// CANCELLED; pending exams have no result time. Patients alternate a and b.
func FixtureExams() []model.ExamRecord {
	statuses := []model.ExamStatus{model.ExamStatusCompleted, model.ExamStatusPending, model.ExamStatusCancelled}
	out := make([]model.ExamRecord, 12)
	for i := range out {
		created := Base.Add(time.Duration(i) * time.Hour)
		if i >= 4 && i <= 6 {
			created = Base.Add(4 * time.Hour)
		}
		patient := "patient-a"
		if i%2 == 1 {
			patient = "patient-b"
		}
		r := model.ExamRecord{
			PatientID:   patient,
			PatientName: "Fixture " + patient,
			ExamType:    "Glucose",
			Status:      statuses[i%3],
			CollectedAt: created.Add(-24 * time.Hour),
			Laboratory:  "Lab Paulista",
			CreatedAt:   created,
		}
		if r.Status != model.ExamStatusPending {
			at := created.Add(30 * time.Minute)
			v := 90.5
			r.ResultAt, r.ResultValue = &at, &v
		}
		out[i] = r
	}
	return out
}

// seed loads the fixture and returns it as stored, in insertion order.
func seed(t *testing.T, store repository.ExamStore, w repository.ExamWriter) []model.ExamRecord {
	t.Helper()
	fixture := FixtureExams()
	n, err := w.InsertExams(context.Background(), fixture)
	if err != nil || n != len(fixture) {
		t.Fatalf("seed: n=%d err=%v", n, err)
	}
	all, err := store.Fetch(context.Background(), repository.Query{
		Sort:  []repository.Field{repository.FieldID},
		Limit: 100,
	})
	if err != nil {
		t.Fatalf("seed read back: %v", err)
	}
	if len(all) != len(fixture) {
		t.Fatalf("seed read back %d records, want %d", len(all), len(fixture))
	}
	for i := range all {
		if all[i].PatientID != fixture[i].PatientID || !all[i].CreatedAt.Equal(fixture[i].CreatedAt) {
			t.Fatalf("record %d stored out of insertion order: %+v", i, all[i])
		}
	}
	return all
}

func ids(records []model.ExamRecord) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func pick(all []model.ExamRecord, idx ...int) []int64 {
	out := make([]int64, len(idx))
	for i, j := range idx {
		out[i] = all[j].ID
	}
	return out
}

func assertIDs(t *testing.T, got []model.ExamRecord, want []int64) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got ids %v, want %v", g, want)
	}
	for i := range g {
		if g[i] != want[i] {
			t.Fatalf("got ids %v, want %v", g, want)
		}
	}
}

func RunExamStoreContract(t *testing.T, makeStore ExamStoreFactory) {
	t.Helper()
	ctx := context.Background()
	byTime := []repository.Field{repository.FieldCreatedAt, repository.FieldID}

	run := func(name string, fn func(t *testing.T, store repository.ExamStore, all []model.ExamRecord)) {
		t.Run(name, func(t *testing.T) {
			store, w, cleanup := makeStore(t)
			t.Cleanup(cleanup)
			fn(t, store, seed(t, store, w))
		})
	}

	run("ordered_by_id_with_limit", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		got, err := store.Fetch(ctx, repository.Query{Sort: []repository.Field{repository.FieldID}, Limit: 5})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		assertIDs(t, got, pick(all, 0, 1, 2, 3, 4))
	})

	run("skip_past_window", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		got, err := store.Fetch(ctx, repository.Query{Sort: []repository.Field{repository.FieldID}, Skip: 10, Limit: 5})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		assertIDs(t, got, pick(all, 10, 11))

		got, err = store.Fetch(ctx, repository.Query{Sort: []repository.Field{repository.FieldID}, Skip: 50, Limit: 5})
		if err != nil {
			t.Fatalf("fetch beyond end: %v", err)
		}
		assertIDs(t, got, nil)
	})

	run("exclusive_lower_bound_on_id", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		got, err := store.Fetch(ctx, repository.Query{
			Sort:  []repository.Field{repository.FieldID},
			Lower: &repository.Bound{Values: []any{all[3].ID}},
			Limit: 3,
		})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		assertIDs(t, got, pick(all, 4, 5, 6))
	})

	run("inclusive_time_range", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		got, err := store.Fetch(ctx, repository.Query{
			Sort:  byTime,
			Lower: &repository.Bound{Values: []any{Base.Add(time.Hour)}, Inclusive: true},
			Upper: &repository.Bound{Values: []any{Base.Add(4 * time.Hour)}, Inclusive: true},
			Limit: 20,
		})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		assertIDs(t, got, pick(all, 1, 2, 3, 4, 5, 6))
	})

	run("compound_marker_splits_timestamp_ties", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		got, err := store.Fetch(ctx, repository.Query{
			Sort:  byTime,
			Lower: &repository.Bound{Values: []any{Base.Add(4 * time.Hour), all[4].ID}},
			Upper: &repository.Bound{Values: []any{Base.Add(4 * time.Hour)}, Inclusive: true},
			Limit: 20,
		})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		assertIDs(t, got, pick(all, 5, 6))
	})

	run("equality_filter_skips_missing_sort_values", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		byResult := []repository.Field{repository.FieldResultAt, repository.FieldID}
		got, err := store.Fetch(ctx, repository.Query{
			Sort:    byResult,
			Filters: []repository.Equal{{Field: repository.FieldStatus, Value: string(model.ExamStatusCompleted)}},
			Limit:   20,
		})
		if err != nil {
			t.Fatalf("fetch completed: %v", err)
		}
		assertIDs(t, got, pick(all, 0, 3, 6, 9))

		got, err = store.Fetch(ctx, repository.Query{
			Sort:    byResult,
			Filters: []repository.Equal{{Field: repository.FieldStatus, Value: string(model.ExamStatusPending)}},
			Limit:   20,
		})
		if err != nil {
			t.Fatalf("fetch pending: %v", err)
		}
		assertIDs(t, got, nil)
	})

	run("patient_filter_by_collection_time", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		got, err := store.Fetch(ctx, repository.Query{
			Sort:    []repository.Field{repository.FieldCollectedAt, repository.FieldID},
			Filters: []repository.Equal{{Field: repository.FieldPatientID, Value: "patient-a"}},
			Limit:   3,
		})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		assertIDs(t, got, pick(all, 0, 2, 4))
	})

	run("descending_order", func(t *testing.T, store repository.ExamStore, all []model.ExamRecord) {
		got, err := store.Fetch(ctx, repository.Query{
			Sort:      []repository.Field{repository.FieldID},
			Direction: repository.Desc,
			Limit:     3,
		})
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		assertIDs(t, got, pick(all, 11, 10, 9))
	})

	run("contradictory_bounds_are_invalid", func(t *testing.T, store repository.ExamStore, _ []model.ExamRecord) {
		_, err := store.Fetch(ctx, repository.Query{
			Sort:  byTime,
			Lower: &repository.Bound{Values: []any{Base.Add(5 * time.Hour)}, Inclusive: true},
			Upper: &repository.Bound{Values: []any{Base.Add(time.Hour)}, Inclusive: true},
			Limit: 5,
		})
		if !errors.Is(err, repository.ErrInvalidQuery) {
			t.Fatalf("expected ErrInvalidQuery, got %v", err)
		}
	})

	run("cancelled_context_is_unavailable", func(t *testing.T, store repository.ExamStore, _ []model.ExamRecord) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		got, err := store.Fetch(cctx, repository.Query{Sort: []repository.Field{repository.FieldID}, Limit: 5})
		if !errors.Is(err, repository.ErrStoreUnavailable) {
			t.Fatalf("expected ErrStoreUnavailable, got %v", err)
		}
		if got != nil {
			t.Fatalf("expected no partial page, got %d records", len(got))
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			t.Fatalf("ping failed: %v", err)
		}
	})
}
