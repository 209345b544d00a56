package mysql_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/config"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/contract"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/mysql"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/testsupport/containers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	containers.SkipUnlessEnabled(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ep, terminate, err := containers.MySQL(ctx)
	require.NoError(t, err)
	t.Cleanup(terminate)

	db, err := mysql.Connect(ctx, config.MySQLConfig{
		Host:         ep.Host,
		Port:         ep.Port,
		User:         containers.User,
		Password:     containers.Password,
		DBName:       containers.DBName,
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, mysql.Migrate(ctx, db))
	return db
}

func TestMySQLExamRepository_Contract(t *testing.T) {
	db := startMySQL(t)

	contract.RunExamStoreContract(t, func(t *testing.T) (repository.ExamStore, repository.ExamWriter, func()) {
		_, err := db.Exec("TRUNCATE TABLE exams")
		require.NoError(t, err)
		repo := mysql.NewExamRepository(db)
		return repo, repo, func() {}
	})
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		return mysql.NewPinger(db), func() {}
	})
}

func TestMySQLIndexProvisioner_ApplyIsIdempotent(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()
	prov := mysql.NewIndexProvisioner(db)

	first, err := indexplan.Apply(ctx, prov, indexplan.Default(), nil, indexplan.Options{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, first.Created, 3)

	second, err := indexplan.Apply(ctx, prov, indexplan.Default(), nil, indexplan.Options{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, second.Created)

	// creating over an existing name is tolerated
	require.NoError(t, prov.CreateIndex(ctx, indexplan.Default().Indexes[1]))
}
