// Package forager resolves recipe ingredients into purchasable products from
// an online grocery catalog. It wires the term planner, the catalog client,
// and the batch coordinator from a single configuration and exposes one
// Resolve entry point.
package forager

import (
	"context"
	"log/slog"
	"time"

	"github.com/FranksOps/forager/internal/catalog"
	"github.com/FranksOps/forager/internal/config"
	"github.com/FranksOps/forager/internal/fingerprint"
	"github.com/FranksOps/forager/internal/metrics"
	"github.com/FranksOps/forager/internal/planner"
	"github.com/FranksOps/forager/internal/product"
	"github.com/FranksOps/forager/internal/resolver"
	"github.com/FranksOps/forager/pkg/retry"
)

// Engine is a fully wired resolution pipeline. Build one per process and
// share it; the catalog client inside enforces the process-wide request cap.
type Engine struct {
	cfg        *config.Config
	client     *catalog.Client
	coord      *resolver.Coordinator
	metricsSrv *metrics.Server
	logger     *slog.Logger
}

// Option customizes an Engine at construction time.
type Option func(*options)

type options struct {
	suggester planner.Suggester
	logger    *slog.Logger
}

// WithSuggester installs a term suggester for alternate, category, and
// substitute search terms. Without one, ladders hold only the ingredient's
// own names.
func WithSuggester(s planner.Suggester) Option {
	return func(o *options) { o.suggester = s }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds an Engine from the configuration. A nil cfg uses the built-in
// defaults. Configuration errors are fatal; everything after construction
// degrades into per-ingredient failures instead.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	client, err := catalog.NewClient(catalog.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		SearchPath:        cfg.Catalog.SearchPath,
		Store:             cfg.Catalog.Store,
		Timeout:           cfg.Fetch.Timeout,
		MaxConcurrent:     cfg.Fetch.MaxConcurrent,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Jitter:            cfg.Fetch.Jitter,
		Retry: retry.Policy{
			MaxRetries: cfg.Fetch.MaxRetries,
			BaseDelay:  cfg.Fetch.RetryBaseDelay,
			MaxDelay:   10 * time.Second,
			Multiplier: 2,
		},
		TLSProfile:  fingerprint.Profile(cfg.Fetch.TLSProfile),
		MaxProducts: cfg.Extract.MaxProducts,
	}, o.logger)
	if err != nil {
		return nil, err
	}

	policy := planner.FailOpen
	if !cfg.Plan.FailOpen {
		policy = planner.FailClosed
	}
	p := planner.New(planner.Config{
		MaxTerms:      cfg.Plan.MaxTerms,
		FailurePolicy: policy,
	}, o.suggester, o.logger)

	e := &Engine{
		cfg:    cfg,
		client: client,
		coord:  resolver.NewCoordinator(p, client, cfg.Resolve.Workers, o.logger),
		logger: o.logger,
	}

	if cfg.Metrics.Enabled {
		e.metricsSrv = metrics.Start(cfg.Metrics.Port)
	}

	return e, nil
}

// Resolve runs one resolution batch. A non-positive budget falls back to the
// configured default budget.
func (e *Engine) Resolve(ctx context.Context, ingredients []product.IngredientRequest, budget float64) (*product.ResolutionBatch, error) {
	if budget <= 0 {
		budget = e.cfg.Resolve.DefaultBudget
	}
	return e.coord.Resolve(ctx, ingredients, budget)
}

// Close releases the engine's resources, including the metrics endpoint when
// one is running.
func (e *Engine) Close(ctx context.Context) error {
	e.client.Close()
	if e.metricsSrv != nil {
		return e.metricsSrv.Stop(ctx)
	}
	return nil
}
