// Package resolver drives ingredient resolution: a fallback controller walks
// one ingredient's term ladder until a term yields candidates, and a
// coordinator fans that out concurrently over a whole ingredient list.
package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/FranksOps/forager/internal/metrics"
	"github.com/FranksOps/forager/internal/product"
	"github.com/FranksOps/forager/internal/rank"
	"github.com/google/uuid"
)

// Searcher is the catalog capability the resolver depends on: one search
// request in, extracted (unscored) candidates out.
type Searcher interface {
	Search(ctx context.Context, term string) ([]product.Candidate, error)
}

// Fallback resolves a single ingredient by trying its planned terms in order.
type Fallback struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewFallback creates a fallback controller over the given searcher.
func NewFallback(searcher Searcher, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{searcher: searcher, logger: logger}
}

// Resolve walks the term ladder sequentially and stops at the first term that
// yields at least one candidate. Stopping early is a deliberate latency/cost
// trade-off: a later term might find a cheaper match, but each extra term is
// another catalog round trip.
//
// A terminal fetch failure on one term counts as zero candidates and the
// ladder moves on; only context cancellation stops it early. Every term tried
// is recorded in the attempt history regardless of outcome.
func (f *Fallback) Resolve(ctx context.Context, ing product.IngredientRequest, terms []product.SearchTerm) product.ResolutionResult {
	res := product.ResolutionResult{
		ID:         uuid.New().String(),
		Ingredient: ing,
		Status:     product.StatusExhausted,
	}

	for _, term := range terms {
		if ctx.Err() != nil {
			res.Status = product.StatusCancelled
			res.Error = ctx.Err().Error()
			break
		}

		start := time.Now()
		attempt := product.SearchAttempt{Term: term, At: start.UTC()}

		candidates, err := f.searcher.Search(ctx, term.Text)
		attempt.Duration = time.Since(start)

		if err != nil {
			attempt.Error = err.Error()
			res.Attempts = append(res.Attempts, attempt)

			if ctx.Err() != nil {
				res.Status = product.StatusCancelled
				res.Error = ctx.Err().Error()
				break
			}

			f.logger.Debug("term yielded nothing, falling back",
				"ingredient", ing.Name, "term", term.Text, "origin", term.Origin, "err", err)
			continue
		}

		rank.Apply(term.Text, candidates)
		candidates = rank.Dedupe(candidates)
		rank.Sort(candidates)

		attempt.Found = len(candidates)
		attempt.Success = len(candidates) > 0
		res.Attempts = append(res.Attempts, attempt)

		if len(candidates) > 0 {
			res.Candidates = candidates
			best := candidates[0]
			res.Best = &best
			res.Success = true
			res.Status = product.StatusResolved
			break
		}
	}

	f.logger.Debug("ingredient resolution finished",
		"ingredient", ing.Name, "status", res.Status, "attempts", len(res.Attempts))
	metrics.RecordResolution(&res)
	return res
}
