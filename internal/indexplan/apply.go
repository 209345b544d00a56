package indexplan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnsafePlan is returned by Apply when some query shape has no covering
// index and the caller did not allow it.
var ErrUnsafePlan = errors.New("index plan leaves query shapes without a covering index")

// Provisioner creates indexes in one concrete store.
// CreateIndex must succeed when the index already exists.
type Provisioner interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, idx Index) error
}

type Options struct {
	AllowUnsafe bool
}

// Report lists what Apply did.
type Report struct {
	Created  []string
	Existing []string
	Unsafe   []Finding
}

// Apply provisions every secondary index of the plan that does not exist yet.
// Running it twice is a no-op the second time.
func Apply(ctx context.Context, p Provisioner, plan Plan, shapes []Shape, opts Options, logger zerolog.Logger) (Report, error) {
	log := logger.With().Str("module", "indexplan").Str("collection", plan.Collection).Logger()

	if err := plan.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid index plan: %w", err)
	}

	var rep Report
	rep.Unsafe = Unsafe(Check(plan, shapes))
	for _, f := range rep.Unsafe {
		log.Warn().Str("shape", f.Shape.String()).Msg("query shape has no covering index")
	}
	if len(rep.Unsafe) > 0 && !opts.AllowUnsafe {
		names := make([]string, len(rep.Unsafe))
		for i, f := range rep.Unsafe {
			names[i] = f.Shape.String()
		}
		return rep, fmt.Errorf("%w: %s", ErrUnsafePlan, strings.Join(names, "; "))
	}

	for _, idx := range plan.Indexes {
		if idx.Primary {
			rep.Existing = append(rep.Existing, idx.Name)
			continue
		}
		exists, err := p.IndexExists(ctx, idx.Name)
		if err != nil {
			return rep, fmt.Errorf("check index %s: %w", idx.Name, err)
		}
		if exists {
			log.Debug().Str("index", idx.Name).Msg("index already present")
			rep.Existing = append(rep.Existing, idx.Name)
			continue
		}
		if err := p.CreateIndex(ctx, idx); err != nil {
			return rep, fmt.Errorf("create index %s: %w", idx.Name, err)
		}
		log.Info().Str("index", idx.String()).Msg("index created")
		rep.Created = append(rep.Created, idx.Name)
	}
	return rep, nil
}
