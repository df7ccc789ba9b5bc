package planner

import (
	"context"
	"strings"

	"github.com/FranksOps/forager/internal/product"
)

// Suggestion is one externally supplied search term with its ladder origin.
type Suggestion struct {
	Text   string
	Origin product.TermOrigin
}

// Suggester supplies alternate, category, and substitute terms for an
// ingredient name. Implementations may be backed by a static dictionary, a
// remote service, or an LLM; the planner does not care which.
type Suggester interface {
	Suggest(ctx context.Context, name string) ([]Suggestion, error)
}

// Func adapts a plain function to the Suggester interface.
type Func func(ctx context.Context, name string) ([]Suggestion, error)

// Suggest implements Suggester.
func (f Func) Suggest(ctx context.Context, name string) ([]Suggestion, error) {
	return f(ctx, name)
}

// Entry is a curated set of terms for one ingredient in a Static suggester.
type Entry struct {
	Alternates  []string
	Category    string
	Substitutes []string
}

// Static is a table-backed Suggester keyed by case-folded ingredient name.
type Static struct {
	entries map[string]Entry
}

// NewStatic builds a Static suggester from a curated table.
func NewStatic(table map[string]Entry) *Static {
	entries := make(map[string]Entry, len(table))
	for name, e := range table {
		entries[strings.ToLower(strings.TrimSpace(name))] = e
	}
	return &Static{entries: entries}
}

// Suggest returns the curated terms for the given name, or nothing when the
// table has no entry. It never fails.
func (s *Static) Suggest(_ context.Context, name string) ([]Suggestion, error) {
	e, ok := s.entries[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, nil
	}

	var out []Suggestion
	for _, alt := range e.Alternates {
		out = append(out, Suggestion{Text: alt, Origin: product.OriginAlternate})
	}
	if e.Category != "" {
		out = append(out, Suggestion{Text: e.Category, Origin: product.OriginCategory})
	}
	for _, sub := range e.Substitutes {
		out = append(out, Suggestion{Text: sub, Origin: product.OriginSubstitute})
	}
	return out, nil
}
