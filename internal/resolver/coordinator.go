package resolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/FranksOps/forager/internal/metrics"
	"github.com/FranksOps/forager/internal/planner"
	"github.com/FranksOps/forager/internal/product"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Coordinator resolves a whole ingredient list concurrently and aggregates
// the batch-level cost analysis.
type Coordinator struct {
	planner  *planner.Planner
	fallback *Fallback
	workers  int
	logger   *slog.Logger
}

// NewCoordinator wires a planner and a searcher into a batch coordinator.
// workers bounds the per-ingredient fan-out; the searcher's own semaphore
// additionally caps total in-flight network activity.
func NewCoordinator(p *planner.Planner, searcher Searcher, workers int, logger *slog.Logger) *Coordinator {
	if workers <= 0 {
		workers = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		planner:  p,
		fallback: NewFallback(searcher, logger),
		workers:  workers,
		logger:   logger,
	}
}

// Resolve produces the batch document for the given ingredients and budget.
// Individual ingredient failures never fail the batch; the only errors
// returned here are input validation ones, before any work starts.
func (c *Coordinator) Resolve(ctx context.Context, ingredients []product.IngredientRequest, budget float64) (*product.ResolutionBatch, error) {
	if len(ingredients) == 0 {
		return nil, product.ErrNoIngredients
	}
	if budget <= 0 {
		return nil, product.ErrInvalidBudget
	}

	batch := &product.ResolutionBatch{
		ID:        uuid.New().String(),
		Budget:    budget,
		StartedAt: time.Now().UTC(),
	}

	c.logger.Info("starting resolution batch",
		"batch", batch.ID, "ingredients", len(ingredients), "budget", budget, "workers", c.workers)

	// Each worker owns exactly one slot in the results slice, so no locking
	// is needed around collection; the merge happens implicitly at Wait.
	results := make([]product.ResolutionResult, len(ingredients))

	var g errgroup.Group
	g.SetLimit(c.workers)

	for i, ing := range ingredients {
		g.Go(func() error {
			results[i] = c.resolveOne(ctx, ing)
			return nil
		})
	}
	_ = g.Wait() // workers record failures in their result, never return them

	batch.Results = results
	batch.FinishedAt = time.Now().UTC()

	for _, r := range results {
		if r.Success && r.Best != nil {
			batch.TotalCost += r.Best.Price
		}
	}
	batch.SuccessRate = float64(batch.Successes()) / float64(len(results))
	batch.Compliance = product.ClassifyBudget(batch.TotalCost, budget)

	metrics.RecordBatch(batch)
	c.logger.Info("resolution batch finished",
		"batch", batch.ID,
		"resolved", batch.Successes(),
		"total", len(results),
		"cost", batch.TotalCost,
		"compliance", batch.Compliance,
		"duration", batch.FinishedAt.Sub(batch.StartedAt))

	return batch, nil
}

func (c *Coordinator) resolveOne(ctx context.Context, ing product.IngredientRequest) product.ResolutionResult {
	if planner.Validate(ing) == planner.Invalid {
		return c.failed(ing, product.StatusInvalid, product.ErrEmptyIngredient.Error())
	}

	if ctx.Err() != nil {
		// The batch deadline expired before this ingredient got a turn.
		return c.failed(ing, product.StatusCancelled, ctx.Err().Error())
	}

	terms, err := c.planner.Plan(ctx, ing)
	if err != nil {
		c.logger.Warn("planning failed", "ingredient", ing.Name, "err", err)
		return c.failed(ing, product.StatusInvalid, err.Error())
	}

	return c.fallback.Resolve(ctx, ing, terms)
}

// failed builds a result for an ingredient that never reached the catalog.
func (c *Coordinator) failed(ing product.IngredientRequest, status product.ResultStatus, msg string) product.ResolutionResult {
	res := product.ResolutionResult{
		ID:         uuid.New().String(),
		Ingredient: ing,
		Status:     status,
		Error:      msg,
	}
	metrics.RecordResolution(&res)
	return res
}
