// Package bootstrap opens the configured exam store and everything the
// commands need from it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/config"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/dynamodb"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/memory"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/mysql"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/postgres"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/seed"
	"github.com/rs/zerolog"
)

// memorySeedPatients is the patient pool for records generated at start.
const memorySeedPatients = 100

// Store bundles one backend's capabilities.
type Store struct {
	Driver  string
	Exams   repository.ExamStore
	Writer  repository.ExamWriter
	Pinger  repository.Pinger
	Indexes indexplan.Provisioner

	migrate func(ctx context.Context) error
	close   func()
}

// Migrate creates the exams table (and, on DynamoDB, its id index).
func (s *Store) Migrate(ctx context.Context) error {
	if s.migrate == nil {
		return nil
	}
	return s.migrate(ctx)
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the driver selected in cfg. Connection failures wrap
// repository.ErrStoreUnavailable.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Store, error) {
	log := logger.With().Str("module", "bootstrap").Str("driver", cfg.Store.Driver).Logger()

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := repository.NewPostgresPool(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewExamRepository(pool)
		return &Store{
			Driver:  cfg.Store.Driver,
			Exams:   repo,
			Writer:  repo,
			Pinger:  postgres.NewPinger(pool),
			Indexes: postgres.NewIndexProvisioner(pool),
			migrate: func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
			close:   pool.Close,
		}, nil

	case config.DriverMySQL:
		db, err := mysql.Connect(ctx, cfg.MySQL, logger)
		if err != nil {
			return nil, err
		}
		repo := mysql.NewExamRepository(db)
		return &Store{
			Driver:  cfg.Store.Driver,
			Exams:   repo,
			Writer:  repo,
			Pinger:  mysql.NewPinger(db),
			Indexes: mysql.NewIndexProvisioner(db),
			migrate: func(ctx context.Context) error { return mysql.Migrate(ctx, db) },
			close:   func() { _ = db.Close() },
		}, nil

	case config.DriverDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		repo, err := dynamodb.NewExamRepository(client, cfg.DynamoDB.Table)
		if err != nil {
			return nil, err
		}
		log.Info().Str("table", cfg.DynamoDB.Table).Str("region", cfg.DynamoDB.Region).Msg("DynamoDB client ready")
		return &Store{
			Driver:  cfg.Store.Driver,
			Exams:   repo,
			Writer:  repo,
			Pinger:  repo,
			Indexes: dynamodb.NewIndexProvisioner(client, cfg.DynamoDB.Table),
			migrate: func(ctx context.Context) error {
				return dynamodb.EnsureTable(ctx, client, cfg.DynamoDB.Table, logger)
			},
		}, nil

	case config.DriverMemory:
		store := memory.NewExamStore()
		if n := cfg.Store.SeedRecords; n > 0 {
			gen, err := seed.New(seed.Options{Patients: memorySeedPatients, Seed: 1})
			if err != nil {
				return nil, err
			}
			if _, err := seed.Load(ctx, store, gen, n, 10_000, logger); err != nil {
				return nil, err
			}
		}
		log.Info().Int("records", store.Len()).Msg("memory store ready")
		return &Store{
			Driver:  cfg.Store.Driver,
			Exams:   store,
			Writer:  store,
			Pinger:  store,
			Indexes: memory.NewIndexes(),
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Verify pings the store within timeout. serve refuses to start without it.
func Verify(ctx context.Context, p repository.Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("startup verification failed: %w", repository.Unavailable(err))
	}
	return nil
}
