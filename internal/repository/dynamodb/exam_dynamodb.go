package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

const (
	// maxQueryPage caps one Query round trip; DynamoDB also stops at 1 MB.
	maxQueryPage = 1000
	// batchWriteMax is the BatchWriteItem request limit.
	batchWriteMax   = 25
	maxBatchRetries = 8
	retryBaseDelay  = 25 * time.Millisecond
)

// ExamRepository reads exams through the plan's secondary indexes and
// writes them with BatchWriteItem.
type ExamRepository struct {
	client DynamoDBAPI
	table  string
	routes []route
}

// NewExamRepository lays the default index plan onto table.
func NewExamRepository(client DynamoDBAPI, table string) (*ExamRepository, error) {
	routes, err := routesFor(indexplan.Default())
	if err != nil {
		return nil, err
	}
	return &ExamRepository{client: client, table: table, routes: routes}, nil
}

func (r *ExamRepository) route(q repository.Query) (route, error) {
	for _, rt := range r.routes {
		if rt.serves(q) {
			return rt, nil
		}
	}
	return route{}, fmt.Errorf("%w: no index serves sort %v with %d filters", repository.ErrInvalidQuery, q.Sort, len(q.Filters))
}

// Fetch runs q against the index that serves it. Skip is applied by reading
// and discarding, since DynamoDB has no offset.
func (r *ExamRepository) Fetch(ctx context.Context, q repository.Query) ([]model.ExamRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rt, err := r.route(q)
	if err != nil {
		return nil, err
	}
	cond, ok, err := rt.keyCondition(q)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.ExamRecord{}, nil
	}
	expr, err := expression.NewBuilder().WithKeyCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidQuery, err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(rt.index),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(q.Direction != repository.Desc),
	}

	skip := q.Skip
	out := make([]model.ExamRecord, 0, q.Limit)
	for {
		// one spare row for the inclusive end of an exclusive bound
		input.Limit = aws.Int32(int32(min(skip+q.Limit-len(out)+1, maxQueryPage)))
		resp, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, MapError(err)
		}
		for _, av := range resp.Items {
			rec, err := unmarshalExam(av)
			if err != nil {
				return nil, err
			}
			if _, ok := q.Match(rec); !ok {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			out = append(out, rec)
			if len(out) == q.Limit {
				return out, nil
			}
		}
		if len(resp.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

// InsertExams assigns ids from the counter item and writes in batches. A
// failure part way leaves earlier batches written; the count says how many.
func (r *ExamRepository) InsertExams(ctx context.Context, exams []model.ExamRecord) (int, error) {
	if len(exams) == 0 {
		return 0, nil
	}
	first, err := r.reserveIDs(ctx, len(exams))
	if err != nil {
		return 0, err
	}

	written := 0
	for start := 0; start < len(exams); start += batchWriteMax {
		batch := exams[start:min(start+batchWriteMax, len(exams))]
		reqs := make([]types.WriteRequest, len(batch))
		for i, e := range batch {
			e.ID = first + int64(start+i)
			item, err := marshalExam(e)
			if err != nil {
				return written, err
			}
			reqs[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
		}
		if err := r.batchWrite(ctx, reqs); err != nil {
			return written, err
		}
		written += len(batch)
	}
	return written, nil
}

// reserveIDs atomically advances the sequence by n and returns the first id
// of the reserved block.
func (r *ExamRepository) reserveIDs(ctx context.Context, n int) (int64, error) {
	update := expression.Add(expression.Name(attrNextID), expression.Value(n))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build counter update: %w", err)
	}
	key, err := attributevalue.MarshalMap(map[string]int64{attrID: counterID})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal counter key: %w", err)
	}
	resp, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, MapError(err)
	}
	var last int64
	if err := attributevalue.Unmarshal(resp.Attributes[attrNextID], &last); err != nil {
		return 0, fmt.Errorf("failed to read id counter: %w", err)
	}
	return last - int64(n) + 1, nil
}

func (r *ExamRepository) batchWrite(ctx context.Context, reqs []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.table: reqs}
	for attempt := 0; ; attempt++ {
		resp, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return MapError(err)
		}
		if len(resp.UnprocessedItems[r.table]) == 0 {
			return nil
		}
		if attempt == maxBatchRetries {
			return repository.Unavailable(fmt.Errorf("%d items still unprocessed after %d retries",
				len(resp.UnprocessedItems[r.table]), maxBatchRetries))
		}
		pending = resp.UnprocessedItems
		select {
		case <-ctx.Done():
			return repository.MapContextError(ctx.Err())
		case <-time.After(retryBaseDelay << attempt):
		}
	}
}

// Ping describes the table, which fails fast when the endpoint or the table
// is gone.
func (r *ExamRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err != nil {
		return repository.Unavailable(err)
	}
	return nil
}

var (
	_ repository.ExamStore  = (*ExamRepository)(nil)
	_ repository.ExamWriter = (*ExamRepository)(nil)
	_ repository.Pinger     = (*ExamRepository)(nil)
)
