package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/config"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/contract"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/postgres"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/testsupport/containers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	containers.SkipUnlessEnabled(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ep, terminate, err := containers.Postgres(ctx)
	require.NoError(t, err)
	t.Cleanup(terminate)

	pool, err := repository.NewPostgresPool(ctx, config.PostgresConfig{
		Host:     ep.Host,
		Port:     ep.Port,
		User:     containers.User,
		Password: containers.Password,
		DBName:   containers.DBName,
		SSLMode:  "disable",
		MaxConns: 4,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	// a second run must be a no-op
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "TRUNCATE TABLE exams RESTART IDENTITY")
	require.NoError(t, err)
}

func TestPostgresExamRepository_Contract(t *testing.T) {
	pool := startPostgres(t)

	contract.RunExamStoreContract(t, func(t *testing.T) (repository.ExamStore, repository.ExamWriter, func()) {
		truncate(t, pool)
		repo := postgres.NewExamRepository(pool)
		return repo, repo, func() {}
	})
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		return postgres.NewPinger(pool), func() {}
	})
}

func TestPostgresIndexProvisioner_ApplyIsIdempotent(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	prov := postgres.NewIndexProvisioner(pool)
	plan := indexplan.Default()

	first, err := indexplan.Apply(ctx, prov, plan, nil, indexplan.Options{}, zerolog.Nop())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idx_created_at", "idx_status_result", "idx_patient_collected"}, first.Created)

	second, err := indexplan.Apply(ctx, prov, plan, nil, indexplan.Options{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, second.Created)

	for _, idx := range plan.Indexes {
		ok, err := prov.IndexExists(ctx, idx.Name)
		require.NoError(t, err)
		assert.True(t, ok, idx.Name)
	}
}

func TestPostgresExamRepository_ClosedPoolIsUnavailable(t *testing.T) {
	pool := startPostgres(t)
	repo := postgres.NewExamRepository(pool)
	pool.Close()

	_, err := repo.Fetch(context.Background(), repository.Query{
		Sort:  []repository.Field{repository.FieldID},
		Limit: 1,
	})
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}
