package pagination

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/model"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/repository"
	"github.com/rs/zerolog"
)

const defaultFetchTimeout = 3 * time.Second

// Config tunes the engine.
type Config struct {
	Limits Limits
	// FetchTimeout bounds each store call; expiry fails the page with
	// repository.ErrStoreUnavailable.
	FetchTimeout time.Duration
}

// Engine serves pages for every strategy. It holds no per-request state and
// is safe for concurrent use; it never caches and never retries.
type Engine struct {
	store repository.ExamStore
	codec *TokenCodec
	cfg   Config
	log   zerolog.Logger
}

func NewEngine(store repository.ExamStore, codec *TokenCodec, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Engine{
		store: store,
		codec: codec,
		cfg:   cfg,
		log:   logger.With().Str("module", "pagination").Str("component", "engine").Logger(),
	}
}

// Paginate returns one page of exams for strategy. params holds either the
// strategy's explicit fields or a single token from a previous page.
// Failures are *Error values tagged with the strategy.
func (e *Engine) Paginate(ctx context.Context, strategy string, params url.Values) (Page[model.ExamRecord], error) {
	name, err := ParseStrategyName(strategy)
	if err != nil {
		e.log.Debug().Str("strategy", strategy).Msg("unknown strategy requested")
		return Page[model.ExamRecord]{}, &Error{Strategy: strategy, Err: err}
	}

	page, err := e.paginate(ctx, name, params)
	if err != nil {
		e.logFailure(name, err)
		return Page[model.ExamRecord]{}, &Error{Strategy: string(name), Err: err}
	}
	return page, nil
}

func (e *Engine) paginate(ctx context.Context, name StrategyName, params url.Values) (Page[model.ExamRecord], error) {
	tok, err := e.decode(name, params)
	if err != nil {
		return Page[model.ExamRecord]{}, err
	}
	if err := tok.validate(e.cfg.Limits); err != nil {
		return Page[model.ExamRecord]{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	records, err := e.store.Fetch(fetchCtx, tok.query())
	if err != nil {
		return Page[model.ExamRecord]{}, repository.MapContextError(err)
	}

	page := Page[model.ExamRecord]{Items: records}
	if size := tok.size(); len(records) > size {
		page.Items = records[:size]
		page.HasMore = true
		page.NextToken, err = e.codec.Encode(tok.next(records[size-1]))
		if err != nil {
			return Page[model.ExamRecord]{}, err
		}
	}
	if page.Items == nil {
		page.Items = []model.ExamRecord{}
	}

	e.log.Debug().
		Str("strategy", string(name)).
		Int("items", len(page.Items)).
		Bool("has_more", page.HasMore).
		Dur("fetch", time.Since(start)).
		Msg("page served")
	return page, nil
}

func (e *Engine) decode(name StrategyName, params url.Values) (PageToken, error) {
	if raw := params.Get(TokenParam); raw != "" {
		if hasAny(params, explicitParams[name]...) {
			return nil, invalidToken(TokenParam, "cannot be combined with %v", explicitParams[name])
		}
		return e.codec.Decode(raw, name)
	}
	switch name {
	case Offset:
		return parseOffset(params, e.cfg.Limits)
	case Cursor:
		return parseCursor(params, e.cfg.Limits)
	case Time:
		return parseTime(params, e.cfg.Limits)
	}
	return nil, ErrUnknownStrategy
}

var explicitParams = map[StrategyName][]string{
	Offset: {"page", "size"},
	Cursor: {"lastId", "limit"},
	Time:   {"from", "to", "limit", "status", "patientId"},
}

// DecodeToken returns the state behind a token issued for strategy.
func (e *Engine) DecodeToken(strategy StrategyName, token string) (PageToken, error) {
	return e.codec.Decode(token, strategy)
}

func (e *Engine) logFailure(name StrategyName, err error) {
	switch {
	case errors.Is(err, repository.ErrInvalidQuery):
		// a strategy built a query the store refuses: that is a bug here
		e.log.Error().Err(err).Str("strategy", string(name)).Msg("invalid store query")
	case errors.Is(err, repository.ErrStoreUnavailable):
		e.log.Warn().Err(err).Str("strategy", string(name)).Msg("store unavailable")
	case errors.Is(err, ErrInvalidToken):
		e.log.Debug().Err(err).Str("strategy", string(name)).Msg("rejected page request")
	default:
		e.log.Error().Err(err).Str("strategy", string(name)).Msg("pagination failed")
	}
}

// QueryShapes lists the query shape of every strategy variant, for checking
// against an index plan.
func QueryShapes() []indexplan.Shape {
	return []indexplan.Shape{
		indexplan.ShapeOf(string(Offset), "", OffsetToken{Page: 1, Size: 1}.query()),
		indexplan.ShapeOf(string(Cursor), "", CursorToken{Limit: 1}.query()),
		indexplan.ShapeOf(string(Time), "created", TimeToken{Limit: 1}.query()),
		indexplan.ShapeOf(string(Time), "status", TimeToken{Limit: 1, Status: string(model.ExamStatusCompleted)}.query()),
		indexplan.ShapeOf(string(Time), "patient", TimeToken{Limit: 1, PatientID: "patient"}.query()),
	}
}
