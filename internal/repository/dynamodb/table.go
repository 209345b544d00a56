package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rs/zerolog"
)

const (
	tableWaitTimeout  = 5 * time.Minute
	indexPollInterval = 2 * time.Second
)

func tableExists(ctx context.Context, client DynamoDBAPI, table string) (*types.TableDescription, error) {
	resp, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, MapError(err)
	}
	return resp.Table, nil
}

// EnsureTable creates the exams table with the id index the primary key
// entry of the plan describes. It plays the part SQL migrations play for the
// relational stores and is a no-op when the table exists.
func EnsureTable(ctx context.Context, client DynamoDBAPI, table string, logger zerolog.Logger) error {
	desc, err := tableExists(ctx, client, table)
	if err != nil {
		return err
	}
	if desc != nil {
		logger.Debug().Str("table", table).Msg("dynamodb table already present")
		return nil
	}

	var primary *indexplan.Index
	for _, idx := range indexplan.Default().Indexes {
		if idx.Primary {
			primary = &idx
			break
		}
	}
	if primary == nil {
		return errors.New("index plan has no primary index")
	}
	rt, err := routeFor(*primary)
	if err != nil {
		return err
	}

	attrs := []types.AttributeDefinition{{AttributeName: aws.String(attrID), AttributeType: types.ScalarAttributeTypeN}}
	for _, def := range rt.attributeDefinitions() {
		if aws.ToString(def.AttributeName) != attrID {
			attrs = append(attrs, def)
		}
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(table),
		AttributeDefinitions: attrs,
		KeySchema: []types.KeySchemaElement{{
			AttributeName: aws.String(attrID),
			KeyType:       types.KeyTypeHash,
		}},
		BillingMode: types.BillingModePayPerRequest,
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{{
			IndexName:  aws.String(rt.index),
			KeySchema:  rt.keySchema(),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		}},
	})
	if err != nil && !isResourceInUse(err) {
		return MapError(err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, tableWaitTimeout); err != nil {
		return repository.Unavailable(fmt.Errorf("waiting for table %s: %w", table, err))
	}
	logger.Info().Str("table", table).Str("index", rt.index).Msg("dynamodb table created")
	return nil
}

type indexProvisioner struct {
	client       DynamoDBAPI
	table        string
	pollInterval time.Duration
}

// NewIndexProvisioner creates plan indexes as global secondary indexes and
// waits for each to become ACTIVE.
func NewIndexProvisioner(client DynamoDBAPI, table string) indexplan.Provisioner {
	return &indexProvisioner{client: client, table: table, pollInterval: indexPollInterval}
}

func (p *indexProvisioner) indexStatus(ctx context.Context, name string) (types.IndexStatus, bool, error) {
	desc, err := tableExists(ctx, p.client, p.table)
	if err != nil {
		return "", false, err
	}
	if desc == nil {
		return "", false, repository.Unavailable(fmt.Errorf("table %s does not exist", p.table))
	}
	for _, gsi := range desc.GlobalSecondaryIndexes {
		if aws.ToString(gsi.IndexName) == name {
			return gsi.IndexStatus, true, nil
		}
	}
	return "", false, nil
}

func (p *indexProvisioner) IndexExists(ctx context.Context, name string) (bool, error) {
	_, ok, err := p.indexStatus(ctx, name)
	return ok, err
}

func (p *indexProvisioner) CreateIndex(ctx context.Context, idx indexplan.Index) error {
	rt, err := routeFor(idx)
	if err != nil {
		return err
	}
	_, err = p.client.UpdateTable(ctx, &dynamodb.UpdateTableInput{
		TableName:            aws.String(p.table),
		AttributeDefinitions: rt.attributeDefinitions(),
		GlobalSecondaryIndexUpdates: []types.GlobalSecondaryIndexUpdate{{
			Create: &types.CreateGlobalSecondaryIndexAction{
				IndexName:  aws.String(rt.index),
				KeySchema:  rt.keySchema(),
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		}},
	})
	if err != nil {
		// a concurrent apply may have created it first
		if _, exists, lookupErr := p.indexStatus(ctx, rt.index); lookupErr != nil || !exists {
			return MapError(err)
		}
	}
	return p.waitActive(ctx, rt.index)
}

func (p *indexProvisioner) waitActive(ctx context.Context, name string) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		status, ok, err := p.indexStatus(ctx, name)
		if err != nil {
			return err
		}
		if ok && status == types.IndexStatusActive {
			return nil
		}
		select {
		case <-ctx.Done():
			return repository.MapContextError(ctx.Err())
		case <-ticker.C:
		}
	}
}
