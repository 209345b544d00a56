// Package model contains the exam record shared by the store adapters, the
// pagination engine and the HTTP layer. It carries data only.
package model

import "time"

// ExamStatus is the lifecycle state of an exam.
type ExamStatus string

const (
	ExamStatusPending   ExamStatus = "PENDING"
	ExamStatusCompleted ExamStatus = "COMPLETED"
	ExamStatusCancelled ExamStatus = "CANCELLED"
)

// ExamStatuses lists every known status in declaration order.
var ExamStatuses = []ExamStatus{ExamStatusPending, ExamStatusCompleted, ExamStatusCancelled}

// Valid reports whether s is one of the known statuses.
func (s ExamStatus) Valid() bool {
	for _, known := range ExamStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ExamRecord is a single medical exam as stored in the exams collection.
// ID is assigned by the store from an append-only sequence and never reused.
type ExamRecord struct {
	ID          int64      `json:"id"`
	PatientID   string     `json:"patient_id"`
	PatientName string     `json:"patient_name,omitempty"`
	ExamType    string     `json:"exam_type,omitempty"`
	Status      ExamStatus `json:"status"`
	ResultValue *float64   `json:"result_value,omitempty"`
	CollectedAt time.Time  `json:"collected_at"`
	ResultAt    *time.Time `json:"result_at,omitempty"`
	Laboratory  string     `json:"laboratory,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
