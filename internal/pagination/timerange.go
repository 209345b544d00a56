package pagination

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// Marker is the (timestamp, id) of the last record a time page returned.
type Marker struct {
	At time.Time `json:"at"`
	ID int64     `json:"id"`
}

// TimeToken pages through records whose timestamp falls in [From, To], in
// (timestamp, id) order. Without filters the timestamp is the creation time;
// Status ranges over result time and PatientID over collection time.
type TimeToken struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Limit     int       `json:"limit"`
	Status    string    `json:"status,omitempty" validate:"omitempty,excluded_with=PatientID,oneof=PENDING COMPLETED CANCELLED"`
	PatientID string    `json:"patientId,omitempty" validate:"omitempty,max=64,printascii"`
	After     *Marker   `json:"after,omitempty"`
}

func (TimeToken) Strategy() StrategyName { return Time }

var filterValidator = validator.New()

func parseTime(params url.Values, l Limits) (PageToken, error) {
	var fe fieldErrors
	tok := TimeToken{
		From:      timeParam(&fe, params, "from", false),
		To:        timeParam(&fe, params, "to", true),
		Limit:     intParam(&fe, params, "limit", l.DefaultSize),
		Status:    strings.ToUpper(strings.TrimSpace(params.Get("status"))),
		PatientID: strings.TrimSpace(params.Get("patientId")),
	}
	return tok, fe.err()
}

func (t TimeToken) validate(l Limits) error {
	var fe fieldErrors
	if t.From.After(t.To) {
		fe.add("from", "must not be after to")
	}
	checkSize(&fe, "limit", t.Limit, l)
	if err := filterValidator.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, v := range verrs {
			switch v.Field() {
			case "Status":
				if v.Tag() == "excluded_with" {
					fe.add("status", "cannot be combined with patientId")
				} else {
					fe.add("status", "must be one of PENDING, COMPLETED, CANCELLED")
				}
			case "PatientID":
				fe.add("patientId", "must be printable ASCII of at most 64 characters")
			}
		}
	}
	if t.After != nil && (t.After.At.Before(t.From) || t.After.At.After(t.To)) {
		fe.add("token", "marker lies outside the requested range")
	}
	return fe.err()
}

func (t TimeToken) size() int { return t.Limit }

// field is the timestamp the range applies to.
func (t TimeToken) field() repository.Field {
	switch {
	case t.Status != "":
		return repository.FieldResultAt
	case t.PatientID != "":
		return repository.FieldCollectedAt
	default:
		return repository.FieldCreatedAt
	}
}

func (t TimeToken) query() repository.Query {
	q := repository.Query{
		Sort:  []repository.Field{t.field(), repository.FieldID},
		Upper: &repository.Bound{Values: []any{t.To}, Inclusive: true},
		Limit: t.Limit + 1,
	}
	switch {
	case t.Status != "":
		q.Filters = []repository.Equal{{Field: repository.FieldStatus, Value: t.Status}}
	case t.PatientID != "":
		q.Filters = []repository.Equal{{Field: repository.FieldPatientID, Value: t.PatientID}}
	}
	// the marker is never before From, so it replaces the range start
	if t.After != nil {
		q.Lower = &repository.Bound{Values: []any{t.After.At, t.After.ID}}
	} else {
		q.Lower = &repository.Bound{Values: []any{t.From}, Inclusive: true}
	}
	return q
}

func (t TimeToken) next(last model.ExamRecord) PageToken {
	n := t
	at, _ := repository.FieldValue(last, t.field())
	ts, _ := at.(time.Time)
	n.After = &Marker{At: ts, ID: last.ID}
	return n
}
