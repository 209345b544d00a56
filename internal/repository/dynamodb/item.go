package dynamodb

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
)

// Attribute names.
const (
	attrID           = "id"
	attrBucket       = "bucket"
	attrPatientID    = "patient_id"
	attrStatus       = "status"
	attrCreatedKey   = "created_key"
	attrResultKey    = "result_key"
	attrCollectedKey = "collected_key"
	attrNextID       = "next_id"
)

// bucketValue puts every exam under one hash key in the unfiltered indexes.
const bucketValue = "exams"

// counterID is the id of the item holding the id sequence. It has no bucket
// so it never shows up in an index.
const counterID int64 = 0

// keyLayout is fixed width so that range keys sort like the times they hold.
const keyLayout = "2006-01-02T15:04:05.000000000Z"

type examItem struct {
	ID           int64    `dynamodbav:"id"`
	Bucket       string   `dynamodbav:"bucket"`
	PatientID    string   `dynamodbav:"patient_id"`
	PatientName  string   `dynamodbav:"patient_name"`
	ExamType     string   `dynamodbav:"exam_type"`
	Status       string   `dynamodbav:"status"`
	ResultValue  *float64 `dynamodbav:"result_value,omitempty"`
	CollectedAt  string   `dynamodbav:"collected_at"`
	ResultAt     *string  `dynamodbav:"result_at,omitempty"`
	Laboratory   string   `dynamodbav:"laboratory"`
	CreatedAt    string   `dynamodbav:"created_at"`
	CreatedKey   string   `dynamodbav:"created_key"`
	ResultKey    *string  `dynamodbav:"result_key,omitempty"`
	CollectedKey string   `dynamodbav:"collected_key"`
}

func timeKey(t time.Time) string {
	return t.UTC().Format(keyLayout)
}

// compositeKey renders (t, id) so that string order equals tuple order.
func compositeKey(t time.Time, id int64) string {
	return fmt.Sprintf("%s#%020d", timeKey(t), id)
}

func toItem(r model.ExamRecord) examItem {
	it := examItem{
		ID:           r.ID,
		Bucket:       bucketValue,
		PatientID:    r.PatientID,
		PatientName:  r.PatientName,
		ExamType:     r.ExamType,
		Status:       string(r.Status),
		ResultValue:  r.ResultValue,
		CollectedAt:  r.CollectedAt.UTC().Format(time.RFC3339Nano),
		Laboratory:   r.Laboratory,
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339Nano),
		CreatedKey:   compositeKey(r.CreatedAt, r.ID),
		CollectedKey: compositeKey(r.CollectedAt, r.ID),
	}
	// pending exams stay out of the result index
	if r.ResultAt != nil {
		at := r.ResultAt.UTC().Format(time.RFC3339Nano)
		key := compositeKey(*r.ResultAt, r.ID)
		it.ResultAt, it.ResultKey = &at, &key
	}
	return it
}

func (it examItem) record() (model.ExamRecord, error) {
	collected, err := time.Parse(time.RFC3339Nano, it.CollectedAt)
	if err != nil {
		return model.ExamRecord{}, fmt.Errorf("exam %d collected_at: %w", it.ID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return model.ExamRecord{}, fmt.Errorf("exam %d created_at: %w", it.ID, err)
	}
	r := model.ExamRecord{
		ID:          it.ID,
		PatientID:   it.PatientID,
		PatientName: it.PatientName,
		ExamType:    it.ExamType,
		Status:      model.ExamStatus(it.Status),
		ResultValue: it.ResultValue,
		CollectedAt: collected.UTC(),
		Laboratory:  it.Laboratory,
		CreatedAt:   created.UTC(),
	}
	if it.ResultAt != nil {
		at, err := time.Parse(time.RFC3339Nano, *it.ResultAt)
		if err != nil {
			return model.ExamRecord{}, fmt.Errorf("exam %d result_at: %w", it.ID, err)
		}
		at = at.UTC()
		r.ResultAt = &at
	}
	return r, nil
}

func marshalExam(r model.ExamRecord) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(toItem(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exam %d: %w", r.ID, err)
	}
	return item, nil
}

func unmarshalExam(av map[string]types.AttributeValue) (model.ExamRecord, error) {
	var it examItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return model.ExamRecord{}, fmt.Errorf("failed to unmarshal exam: %w", err)
	}
	return it.record()
}
