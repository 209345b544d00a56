package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// CursorToken continues after the last seen id. Ids are assigned from an
// append-only sequence, so records inserted later only ever show up on pages
// after the cursor.
type CursorToken struct {
	LastID *int64 `json:"lastId,omitempty"`
	Limit  int    `json:"limit"`
}

func (CursorToken) Strategy() StrategyName { return Cursor }

func parseCursor(params url.Values, l Limits) (PageToken, error) {
	var fe fieldErrors
	tok := CursorToken{Limit: intParam(&fe, params, "limit", l.DefaultSize)}
	if raw := strings.TrimSpace(params.Get("lastId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			fe.add("lastId", "must be an integer")
		} else {
			tok.LastID = &id
		}
	}
	return tok, fe.err()
}

func (t CursorToken) validate(l Limits) error {
	var fe fieldErrors
	if t.LastID != nil && *t.LastID < 0 {
		fe.add("lastId", "must not be negative")
	}
	checkSize(&fe, "limit", t.Limit, l)
	return fe.err()
}

func (t CursorToken) size() int { return t.Limit }

func (t CursorToken) query() repository.Query {
	q := repository.Query{
		Sort:  []repository.Field{repository.FieldID},
		Limit: t.Limit + 1,
	}
	if t.LastID != nil {
		q.Lower = &repository.Bound{Values: []any{*t.LastID}}
	}
	return q
}

func (t CursorToken) next(last model.ExamRecord) PageToken {
	id := last.ID
	return CursorToken{LastID: &id, Limit: t.Limit}
}
