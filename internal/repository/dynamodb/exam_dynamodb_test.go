package dynamodb_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/config"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/contract"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository/dynamodb"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/testsupport/containers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDynamoDBExamRepository_Contract(t *testing.T) {
	containers.SkipUnlessEnabled(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	endpoint, terminate, err := containers.DynamoDB(ctx)
	require.NoError(t, err)
	t.Cleanup(terminate)

	client, err := dynamodb.NewClient(ctx, config.DynamoDBConfig{Region: "us-east-1", Endpoint: endpoint})
	require.NoError(t, err)

	n := 0
	contract.RunExamStoreContract(t, func(t *testing.T) (repository.ExamStore, repository.ExamWriter, func()) {
		// a fresh table per subtest keeps the id sequence and contents isolated
		n++
		table := fmt.Sprintf("exams_%d", n)
		require.NoError(t, dynamodb.EnsureTable(ctx, client, table, zerolog.Nop()))
		_, err := indexplan.Apply(ctx, dynamodb.NewIndexProvisioner(client, table), indexplan.Default(), nil, indexplan.Options{}, zerolog.Nop())
		require.NoError(t, err)

		repo, err := dynamodb.NewExamRepository(client, table)
		require.NoError(t, err)
		return repo, repo, func() {}
	})
	contract.RunPingerContract(t, func(t *testing.T) (repository.Pinger, func()) {
		require.NoError(t, dynamodb.EnsureTable(ctx, client, "exams_ping", zerolog.Nop()))
		repo, err := dynamodb.NewExamRepository(client, "exams_ping")
		require.NoError(t, err)
		return repo, func() {}
	})
}
