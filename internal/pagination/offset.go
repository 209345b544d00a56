package pagination

import (
	"math"
	"net/url"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// maxSkip keeps (page-1)*size inside what every store accepts as an offset.
const maxSkip = math.MaxInt32

// OffsetToken addresses a page by number. Cost grows with the page number,
// so deep pages belong to the cursor strategy.
type OffsetToken struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func (OffsetToken) Strategy() StrategyName { return Offset }

func parseOffset(params url.Values, l Limits) (PageToken, error) {
	var fe fieldErrors
	tok := OffsetToken{
		Page: intParam(&fe, params, "page", 1),
		Size: intParam(&fe, params, "size", l.DefaultSize),
	}
	return tok, fe.err()
}

func (t OffsetToken) validate(l Limits) error {
	var fe fieldErrors
	if t.Page < 1 {
		fe.add("page", "must be at least 1")
	}
	checkSize(&fe, "size", t.Size, l)
	if t.Page >= 1 && t.Size >= 1 && t.Page-1 > maxSkip/t.Size {
		fe.add("page", "is too deep for offset pagination, use the cursor strategy")
	}
	return fe.err()
}

func (t OffsetToken) size() int { return t.Size }

func (t OffsetToken) query() repository.Query {
	return repository.Query{
		Sort:  []repository.Field{repository.FieldID},
		Skip:  (t.Page - 1) * t.Size,
		Limit: t.Size + 1,
	}
}

func (t OffsetToken) next(model.ExamRecord) PageToken {
	return OffsetToken{Page: t.Page + 1, Size: t.Size}
}
