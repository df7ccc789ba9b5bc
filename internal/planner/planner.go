// Package planner builds the ordered fallback ladder of search terms for an
// ingredient: primary name first, then alternates, a category term, and
// substitutes, deduplicated and capped.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FranksOps/forager/internal/product"
)

// FailurePolicy names what the planner does when the term suggester fails.
type FailurePolicy string

const (
	// FailOpen plans from the ingredient's own names and moves on. Default.
	FailOpen FailurePolicy = "fail_open"
	// FailClosed propagates the suggester failure to the caller.
	FailClosed FailurePolicy = "fail_closed"
)

// ValidationStatus is the three-way outcome of ingredient validation.
type ValidationStatus string

const (
	// Valid means the ingredient can be planned and searched.
	Valid ValidationStatus = "valid"
	// Invalid means the ingredient is unusable as given; no network call is made.
	Invalid ValidationStatus = "invalid"
	// Unavailable means validation itself could not run (suggestion service
	// down); the failure policy decides what happens next.
	Unavailable ValidationStatus = "unavailable"
)

// Config tunes the planner.
type Config struct {
	// MaxTerms caps the ladder length. Defaults to 5.
	MaxTerms int
	// FailurePolicy governs suggester failures. Defaults to FailOpen.
	FailurePolicy FailurePolicy
}

// Planner turns an ingredient request into its fallback ladder.
type Planner struct {
	cfg       Config
	suggester Suggester
	logger    *slog.Logger
}

// New creates a Planner. A nil suggester is allowed; the ladder is then built
// from the ingredient's own names only.
func New(cfg Config, suggester Suggester, logger *slog.Logger) *Planner {
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = 5
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailOpen
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{cfg: cfg, suggester: suggester, logger: logger}
}

// Validate classifies an ingredient without touching the network. Only a
// blank name is locally invalid.
func Validate(ing product.IngredientRequest) ValidationStatus {
	if strings.TrimSpace(ing.Name) == "" && strings.TrimSpace(ing.LocalName) == "" {
		return Invalid
	}
	return Valid
}

// Plan returns the ordered, deduplicated term ladder for the ingredient.
// The ladder is never empty for a valid ingredient: at minimum it holds the
// raw ingredient name. Terms equal under case-insensitive comparison are
// dropped, first occurrence winning, and the result is capped at MaxTerms.
func (p *Planner) Plan(ctx context.Context, ing product.IngredientRequest) ([]product.SearchTerm, error) {
	if Validate(ing) == Invalid {
		return nil, product.ErrEmptyIngredient
	}

	var terms []product.SearchTerm
	seen := make(map[string]struct{})

	add := func(text string, origin product.TermOrigin) {
		text = strings.TrimSpace(text)
		if text == "" || len(terms) >= p.cfg.MaxTerms {
			return
		}
		key := strings.ToLower(text)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		terms = append(terms, product.SearchTerm{
			Text:     text,
			Origin:   origin,
			Position: len(terms),
		})
	}

	// The localized market name is the best first guess; the canonical name
	// follows as the first alternate when distinct.
	if ing.LocalName != "" {
		add(ing.LocalName, product.OriginPrimary)
		add(ing.Name, product.OriginAlternate)
	} else {
		add(ing.Name, product.OriginPrimary)
	}

	if p.suggester != nil {
		suggestions, err := p.suggester.Suggest(ctx, ing.Name)
		if err != nil {
			if p.cfg.FailurePolicy == FailClosed {
				return nil, fmt.Errorf("term suggestion for %q: %w", ing.Name, err)
			}
			p.logger.Warn("term suggester unavailable, planning from ingredient names only",
				"ingredient", ing.Name, "err", err)
		} else {
			// Preserve the ladder's origin order regardless of how the
			// suggester ordered its output.
			for _, origin := range []product.TermOrigin{product.OriginAlternate, product.OriginCategory, product.OriginSubstitute} {
				for _, s := range suggestions {
					if s.Origin == origin {
						add(s.Text, s.Origin)
					}
				}
			}
		}
	}

	return terms, nil
}
