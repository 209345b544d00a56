package dynamodb

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// fakeClient scripts DynamoDB responses and records every request.
type fakeClient struct {
	mu sync.Mutex

	queries     []*dynamodb.QueryInput
	queryPages  []*dynamodb.QueryOutput
	queryErr    error
	updates     []*dynamodb.UpdateItemInput
	updateFn    func(*dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
	batches     []*dynamodb.BatchWriteItemInput
	batchFn     func(call int, in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error)
	describeFn  func(call int) (*dynamodb.DescribeTableOutput, error)
	describes   int
	creates     []*dynamodb.CreateTableInput
	tableUpdate []*dynamodb.UpdateTableInput
	updateErr   error
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *in
	f.queries = append(f.queries, &cp)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if len(f.queryPages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.queryPages[0]
	f.queryPages = f.queryPages[1:]
	return page, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	return f.updateFn(in)
}

func (f *fakeClient) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, in)
	if f.batchFn == nil {
		return &dynamodb.BatchWriteItemOutput{}, nil
	}
	return f.batchFn(len(f.batches), in)
}

func (f *fakeClient) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describes++
	return f.describeFn(f.describes)
}

func (f *fakeClient) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, in)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeClient) UpdateTable(ctx context.Context, in *dynamodb.UpdateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tableUpdate = append(f.tableUpdate, in)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateTableOutput{}, nil
}

var _ DynamoDBAPI = (*fakeClient)(nil)
