package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FranksOps/forager/internal/planner"
	"github.com/FranksOps/forager/internal/product"
)

// countingSearcher tracks concurrent in-flight searches and answers every
// term with a single fixed-price candidate.
type countingSearcher struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	delay    time.Duration
	price    float64
}

func (s *countingSearcher) Search(ctx context.Context, term string) ([]product.Candidate, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	return []product.Candidate{{Name: "Produs " + term, Price: s.price}}, nil
}

func ingredients(n int) []product.IngredientRequest {
	out := make([]product.IngredientRequest, n)
	for i := range out {
		out[i] = product.IngredientRequest{Name: fmt.Sprintf("ingredient-%d", i)}
	}
	return out
}

func newCoordinator(s Searcher, workers int) *Coordinator {
	p := planner.New(planner.Config{}, nil, nil)
	return NewCoordinator(p, s, workers, nil)
}

func TestCoordinator_ResolvesAll(t *testing.T) {
	s := &countingSearcher{price: 3.50}
	c := newCoordinator(s, 4)

	batch, err := c.Resolve(context.Background(), ingredients(6), 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(batch.Results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(batch.Results))
	}
	if batch.SuccessRate != 1.0 {
		t.Errorf("expected success rate 1.0, got %v", batch.SuccessRate)
	}

	// Aggregate cost must equal the manual sum of best prices.
	var manual float64
	for _, r := range batch.Results {
		if r.Success {
			manual += r.Best.Price
		}
	}
	if math.Abs(batch.TotalCost-manual) > 1e-9 {
		t.Errorf("total cost %v != manual sum %v", batch.TotalCost, manual)
	}
	if batch.Compliance != product.WithinBudget {
		t.Errorf("expected within_budget, got %s", batch.Compliance)
	}
	if batch.ID == "" || batch.FinishedAt.Before(batch.StartedAt) {
		t.Errorf("batch bookkeeping broken: %+v", batch)
	}
}

func TestCoordinator_BoundedConcurrency(t *testing.T) {
	s := &countingSearcher{price: 1, delay: 20 * time.Millisecond}
	c := newCoordinator(s, 3)

	if _, err := c.Resolve(context.Background(), ingredients(10), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.peak > 3 {
		t.Errorf("observed %d concurrent searches, worker limit is 3", s.peak)
	}
}

func TestCoordinator_BudgetClassification(t *testing.T) {
	tests := []struct {
		price  float64
		budget float64
		want   product.BudgetCompliance
	}{
		{10, 100, product.WithinBudget},       // 50 <= 100
		{23, 100, product.SlightlyOver},       // 115 <= 120
		{30, 100, product.SignificantlyOver},  // 150 > 120
	}

	for _, tt := range tests {
		s := &countingSearcher{price: tt.price}
		c := newCoordinator(s, 2)

		batch, err := c.Resolve(context.Background(), ingredients(5), tt.budget)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if batch.Compliance != tt.want {
			t.Errorf("price %v x5 vs budget %v: got %s, want %s",
				tt.price, tt.budget, batch.Compliance, tt.want)
		}
	}
}

// outageSearcher fails every search for terms carrying a marker substring.
type outageSearcher struct {
	countingSearcher
	failSubstring string
}

func (s *outageSearcher) Search(ctx context.Context, term string) ([]product.Candidate, error) {
	if strings.Contains(term, s.failSubstring) {
		return nil, errors.New("simulated outage")
	}
	return s.countingSearcher.Search(ctx, term)
}

func TestCoordinator_PartialOutage(t *testing.T) {
	s := &outageSearcher{countingSearcher: countingSearcher{price: 2}, failSubstring: "ingredient-0"}
	c := newCoordinator(s, 3)

	batch, err := c.Resolve(context.Background(), ingredients(10), 100)
	if err != nil {
		t.Fatalf("one ingredient's outage must not fail the batch: %v", err)
	}

	var failed *product.ResolutionResult
	resolved := 0
	for i := range batch.Results {
		r := &batch.Results[i]
		if r.Ingredient.Name == "ingredient-0" {
			failed = r
		} else if r.Success {
			resolved++
		}
	}

	if failed == nil || failed.Success {
		t.Fatalf("expected ingredient-0 to fail, got %+v", failed)
	}
	if failed.Status != product.StatusExhausted {
		t.Errorf("expected exhausted status, got %s", failed.Status)
	}
	for _, a := range failed.Attempts {
		if a.Success || a.Error == "" {
			t.Errorf("expected every attempt marked failed, got %+v", a)
		}
	}
	if resolved != 9 {
		t.Errorf("expected the other 9 ingredients to resolve, got %d", resolved)
	}
	if batch.SuccessRate != 0.9 {
		t.Errorf("expected success rate 0.9, got %v", batch.SuccessRate)
	}
}

func TestCoordinator_InvalidIngredient(t *testing.T) {
	s := &countingSearcher{price: 2}
	c := newCoordinator(s, 2)

	ings := []product.IngredientRequest{{Name: "lapte"}, {Name: "   "}}
	batch, err := c.Resolve(context.Background(), ings, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := batch.Results[1]
	if bad.Status != product.StatusInvalid || bad.Success {
		t.Fatalf("expected invalid result, got %+v", bad)
	}
	if len(bad.Attempts) != 0 {
		t.Error("invalid ingredient must not reach the catalog")
	}
	if !batch.Results[0].Success {
		t.Error("valid ingredient should still resolve")
	}
}

func TestCoordinator_DeadlineMarksCancelled(t *testing.T) {
	s := &countingSearcher{price: 2, delay: 50 * time.Millisecond}
	c := newCoordinator(s, 1) // serialize so later ingredients outlive the deadline

	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()

	batch, err := c.Resolve(ctx, ingredients(5), 100)
	if err != nil {
		t.Fatalf("deadline must not fail the batch: %v", err)
	}
	if len(batch.Results) != 5 {
		t.Fatalf("expected a complete batch, got %d results", len(batch.Results))
	}

	cancelled := 0
	for _, r := range batch.Results {
		if r.Status == product.StatusCancelled {
			cancelled++
			if r.Success {
				t.Errorf("cancelled result cannot be successful: %+v", r)
			}
		}
	}
	if cancelled == 0 {
		t.Error("expected at least one ingredient recorded as cancelled")
	}
}

func TestCoordinator_InputValidation(t *testing.T) {
	c := newCoordinator(&countingSearcher{price: 1}, 2)

	if _, err := c.Resolve(context.Background(), nil, 100); !errors.Is(err, product.ErrNoIngredients) {
		t.Errorf("expected ErrNoIngredients, got %v", err)
	}
	if _, err := c.Resolve(context.Background(), ingredients(1), 0); !errors.Is(err, product.ErrInvalidBudget) {
		t.Errorf("expected ErrInvalidBudget, got %v", err)
	}
}
