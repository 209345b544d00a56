// Package sqlquery renders repository queries as SQL for the relational
// adapters. Postgres and MySQL share it and differ only in placeholders.
package sqlquery

import (
	"fmt"
	"strings"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// Table is the exams table shared by every SQL store.
const Table = "exams"

// SelectColumns is the projection scanned by ScanExam, in scan order.
var SelectColumns = []string{
	"id", "patient_id", "patient_name", "exam_type", "status",
	"result_value", "collected_at", "result_at", "laboratory", "created_at",
}

// InsertColumns omits id, which the table sequence assigns.
var InsertColumns = SelectColumns[1:]

var columns = map[repository.Field]string{
	repository.FieldID:          "id",
	repository.FieldPatientID:   "patient_id",
	repository.FieldStatus:      "status",
	repository.FieldCollectedAt: "collected_at",
	repository.FieldResultAt:    "result_at",
	repository.FieldCreatedAt:   "created_at",
}

var nullable = map[repository.Field]bool{
	repository.FieldResultAt: true,
}

// Column returns the physical column of f.
func Column(f repository.Field) (string, error) {
	c, ok := columns[f]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q", repository.ErrInvalidQuery, f)
	}
	return c, nil
}

// Placeholder renders the n-th (1-based) bind parameter.
type Placeholder func(n int) string

// Dollar is the Postgres placeholder style.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question is the MySQL placeholder style.
func Question(int) string { return "?" }

type builder struct {
	ph    Placeholder
	args  []any
	where []string
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.ph(len(b.args))
}

// Build renders q as a SELECT over the exams table. The query is validated
// first, so callers get ErrInvalidQuery before any round trip.
func Build(ph Placeholder, q repository.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	b := &builder{ph: ph}

	for _, eq := range q.Filters {
		col, err := Column(eq.Field)
		if err != nil {
			return "", nil, err
		}
		b.where = append(b.where, col+" = "+b.bind(eq.Value))
	}

	sortCols := make([]string, len(q.Sort))
	for i, f := range q.Sort {
		col, err := Column(f)
		if err != nil {
			return "", nil, err
		}
		sortCols[i] = col
		if nullable[f] {
			b.where = append(b.where, col+" IS NOT NULL")
		}
	}

	if q.Lower != nil {
		b.where = append(b.where, b.compare(sortCols, q.Lower, ">"))
	}
	if q.Upper != nil {
		b.where = append(b.where, b.compare(sortCols, q.Upper, "<"))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(SelectColumns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(Table)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	for i, col := range sortCols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col + " " + q.Direction.String())
	}
	sb.WriteString(" LIMIT " + b.bind(q.Limit))
	if q.Skip > 0 {
		sb.WriteString(" OFFSET " + b.bind(q.Skip))
	}
	return sb.String(), b.args, nil
}

// compare renders a bound as a row-value comparison over the bound's prefix
// of the sort columns, e.g. (created_at, id) > ($1, $2).
func (b *builder) compare(sortCols []string, bound *repository.Bound, op string) string {
	if bound.Inclusive {
		op += "="
	}
	n := len(bound.Values)
	placeholders := make([]string, n)
	for i, v := range bound.Values {
		placeholders[i] = b.bind(v)
	}
	if n == 1 {
		return sortCols[0] + " " + op + " " + placeholders[0]
	}
	return "(" + strings.Join(sortCols[:n], ", ") + ") " + op + " (" + strings.Join(placeholders, ", ") + ")"
}

// Scanner is implemented by pgx.Rows, *sql.Rows and *sql.Row.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanExam reads one row projected with SelectColumns.
func ScanExam(row Scanner) (model.ExamRecord, error) {
	var (
		r      model.ExamRecord
		status string
	)
	err := row.Scan(
		&r.ID, &r.PatientID, &r.PatientName, &r.ExamType, &status,
		&r.ResultValue, &r.CollectedAt, &r.ResultAt, &r.Laboratory, &r.CreatedAt,
	)
	if err != nil {
		return model.ExamRecord{}, err
	}
	r.Status = model.ExamStatus(status)
	r.CollectedAt = r.CollectedAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	if r.ResultAt != nil {
		t := r.ResultAt.UTC()
		r.ResultAt = &t
	}
	return r, nil
}

// InsertValues returns the values of r in InsertColumns order.
func InsertValues(r model.ExamRecord) []any {
	return []any{
		r.PatientID, r.PatientName, r.ExamType, string(r.Status),
		r.ResultValue, r.CollectedAt, r.ResultAt, r.Laboratory, r.CreatedAt,
	}
}
