// Package pagination pages through exam records with one of three closed
// strategies: offset, cursor and time range. Page tokens are opaque to
// callers, signed and bound to the strategy that issued them.
package pagination

import (
	"fmt"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
)

// StrategyName selects a pagination strategy.
type StrategyName string

const (
	Offset StrategyName = "offset"
	Cursor StrategyName = "cursor"
	Time   StrategyName = "time"
)

// Strategies lists the closed set of supported strategies.
var Strategies = []StrategyName{Offset, Cursor, Time}

// ParseStrategyName rejects anything outside Strategies with ErrUnknownStrategy.
func ParseStrategyName(s string) (StrategyName, error) {
	for _, name := range Strategies {
		if StrategyName(s) == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Page is one window of results. NextToken is set exactly when HasMore is.
type Page[T any] struct {
	Items     []T    `json:"items"`
	NextToken string `json:"nextToken,omitempty"`
	HasMore   bool   `json:"hasMore"`
}

// Limits bounds page sizes for every strategy.
type Limits struct {
	DefaultSize int
	MaxSize     int
}

// PageToken is the decoded state of one page request. The implementations
// are OffsetToken, CursorToken and TimeToken; the set is sealed.
type PageToken interface {
	Strategy() StrategyName
	// validate checks ranges; tokens decoded from an older configuration
	// go through it as well.
	validate(l Limits) error
	// size is the number of items the caller asked for.
	size() int
	// query asks for size()+1 records so a following page is detected
	// without a second round trip.
	query() repository.Query
	// next is the token for the page after one ending with last.
	next(last model.ExamRecord) PageToken
}

func checkSize(fe *fieldErrors, field string, n int, l Limits) {
	switch {
	case n < 1:
		fe.add(field, "must be at least 1")
	case n > l.MaxSize:
		fe.add(field, "must not exceed %d", l.MaxSize)
	}
}
