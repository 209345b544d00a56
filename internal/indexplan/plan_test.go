package indexplan_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	byID        = indexplan.Shape{Strategy: "cursor", Sort: []repository.Field{repository.FieldID}}
	byCreated   = indexplan.Shape{Strategy: "time", Sort: []repository.Field{repository.FieldCreatedAt, repository.FieldID}}
	byStatus    = indexplan.Shape{Strategy: "time", Variant: "status", Equality: []repository.Field{repository.FieldStatus}, Sort: []repository.Field{repository.FieldResultAt, repository.FieldID}}
	byPatient   = indexplan.Shape{Strategy: "time", Variant: "patient", Equality: []repository.Field{repository.FieldPatientID}, Sort: []repository.Field{repository.FieldCollectedAt, repository.FieldID}}
	byLabResult = indexplan.Shape{Strategy: "time", Variant: "result", Sort: []repository.Field{repository.FieldResultAt, repository.FieldID}}
)

func TestIndex_Covers(t *testing.T) {
	asc := func(f repository.Field) indexplan.Key { return indexplan.Key{Field: f, Direction: repository.Asc} }
	desc := func(f repository.Field) indexplan.Key { return indexplan.Key{Field: f, Direction: repository.Desc} }

	tests := []struct {
		name  string
		index indexplan.Index
		shape indexplan.Shape
		want  bool
	}{
		{"primary serves id order", indexplan.Index{Keys: []indexplan.Key{asc(repository.FieldID)}}, byID, true},
		{"reversed index scans backwards", indexplan.Index{Keys: []indexplan.Key{desc(repository.FieldCreatedAt), desc(repository.FieldID)}}, byCreated, true},
		{"mixed directions break the scan", indexplan.Index{Keys: []indexplan.Key{desc(repository.FieldCreatedAt), asc(repository.FieldID)}}, byCreated, false},
		{"timestamp only lacks the tiebreak", indexplan.Index{Keys: []indexplan.Key{desc(repository.FieldCreatedAt)}}, byCreated, false},
		{"equality prefix first", indexplan.Index{Keys: []indexplan.Key{asc(repository.FieldStatus), desc(repository.FieldResultAt), desc(repository.FieldID)}}, byStatus, true},
		{"equality field in wrong position", indexplan.Index{Keys: []indexplan.Key{desc(repository.FieldResultAt), asc(repository.FieldStatus), desc(repository.FieldID)}}, byStatus, false},
		{"longer index still serves prefix", indexplan.Index{Keys: []indexplan.Key{asc(repository.FieldID), asc(repository.FieldCreatedAt)}}, byID, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.index.Covers(tt.shape))
		})
	}
}

func TestCheck_DefaultPlan(t *testing.T) {
	findings := indexplan.Check(indexplan.Default(), []indexplan.Shape{byID, byCreated, byStatus, byPatient, byLabResult})
	require.Len(t, findings, 5)

	assert.Equal(t, "exams_pkey", findings[0].Index)
	assert.Equal(t, "idx_created_at", findings[1].Index)
	assert.Equal(t, "idx_status_result", findings[2].Index)
	assert.Equal(t, "idx_patient_collected", findings[3].Index)

	unsafe := indexplan.Unsafe(findings)
	require.Len(t, unsafe, 1)
	assert.Equal(t, "result", unsafe[0].Shape.Variant)
}

func TestPlan_Validate(t *testing.T) {
	assert.NoError(t, indexplan.Default().Validate())

	bad := indexplan.Plan{Indexes: []indexplan.Index{
		{Name: "a", Keys: []indexplan.Key{{Field: repository.FieldID}}},
		{Name: "a", Keys: []indexplan.Key{{Field: "observacao"}}},
		{Name: "", Keys: nil},
	}}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared twice")
	assert.Contains(t, err.Error(), "unknown field")
	assert.Contains(t, err.Error(), "no fields")
}

type countingProvisioner struct {
	*memory.Indexes
	creates int
	fail    error
}

func (c *countingProvisioner) CreateIndex(ctx context.Context, idx indexplan.Index) error {
	if c.fail != nil {
		return c.fail
	}
	c.creates++
	return c.Indexes.CreateIndex(ctx, idx)
}

func TestApply_IsIdempotent(t *testing.T) {
	p := &countingProvisioner{Indexes: memory.NewIndexes()}
	shapes := []indexplan.Shape{byID, byCreated, byStatus, byPatient}
	ctx := context.Background()

	first, err := indexplan.Apply(ctx, p, indexplan.Default(), shapes, indexplan.Options{}, zerolog.Nop())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idx_created_at", "idx_status_result", "idx_patient_collected"}, first.Created)
	assert.Equal(t, []string{"exams_pkey"}, first.Existing)

	second, err := indexplan.Apply(ctx, p, indexplan.Default(), shapes, indexplan.Options{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Len(t, second.Existing, 4)
	assert.Equal(t, 3, p.creates)
}

func TestApply_RefusesUnsafeShapes(t *testing.T) {
	p := &countingProvisioner{Indexes: memory.NewIndexes()}
	shapes := []indexplan.Shape{byID, byLabResult}

	rep, err := indexplan.Apply(context.Background(), p, indexplan.Default(), shapes, indexplan.Options{}, zerolog.Nop())
	require.ErrorIs(t, err, indexplan.ErrUnsafePlan)
	assert.Len(t, rep.Unsafe, 1)
	assert.Zero(t, p.creates)

	rep, err = indexplan.Apply(context.Background(), p, indexplan.Default(), shapes, indexplan.Options{AllowUnsafe: true}, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, rep.Unsafe, 1)
	assert.Len(t, rep.Created, 3)
}

func TestApply_PropagatesProvisionerError(t *testing.T) {
	p := &countingProvisioner{Indexes: memory.NewIndexes(), fail: errors.New("permission denied")}
	_, err := indexplan.Apply(context.Background(), p, indexplan.Default(), []indexplan.Shape{byID}, indexplan.Options{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idx_created_at")
}
