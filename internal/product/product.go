// Package product defines the domain types exchanged between the planner,
// catalog client, and resolver, plus the validation error sentinels.
package product

import "time"

// Importance indicates how critical an ingredient is to the recipe it came from.
type Importance string

const (
	ImportanceEssential Importance = "essential"
	ImportanceImportant Importance = "important"
	ImportanceOptional  Importance = "optional"
)

// IngredientRequest is the caller-supplied descriptor for one item to resolve.
// It is treated as immutable input.
type IngredientRequest struct {
	// Name is the canonical (usually English) ingredient name.
	Name string `json:"name"`
	// LocalName is the localized store-market name, if known. When present it
	// becomes the primary search term.
	LocalName  string     `json:"local_name,omitempty"`
	Importance Importance `json:"importance,omitempty"`
	// Quantity and Unit are serving-scaled amounts. They are passed through to
	// the result untouched; pricing does not use them.
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// TermOrigin tags where a search term came from on the fallback ladder.
type TermOrigin string

const (
	OriginPrimary    TermOrigin = "primary"
	OriginAlternate  TermOrigin = "alternate"
	OriginCategory   TermOrigin = "category"
	OriginSubstitute TermOrigin = "substitute"
)

// SearchTerm is one candidate query string on an ingredient's fallback ladder.
// Position records its place in the ladder; ordering is significant.
type SearchTerm struct {
	Text     string     `json:"text"`
	Origin   TermOrigin `json:"origin"`
	Position int        `json:"position"`
}

// Candidate is a parsed, priced product record returned by the catalog.
// Candidates are immutable once produced; Price is always > 0.
type Candidate struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	URL         string  `json:"url"`
	Available   bool    `json:"available"`
	Relevance   float64 `json:"relevance"`
	PackageSize string  `json:"package_size,omitempty"`
}

// SearchAttempt records one rung of the fallback ladder: the term tried,
// how many candidates it produced, and whether it succeeded. Attempts form
// an append-only history owned by the fallback controller.
type SearchAttempt struct {
	Term     SearchTerm    `json:"term"`
	Found    int           `json:"found"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration"`
}

// ResultStatus classifies the terminal state of a single ingredient resolution.
type ResultStatus string

const (
	// StatusResolved means at least one term yielded a usable candidate.
	StatusResolved ResultStatus = "resolved"
	// StatusExhausted means every planned term was tried and none yielded candidates.
	StatusExhausted ResultStatus = "exhausted"
	// StatusCancelled means the batch deadline expired before this ingredient finished.
	StatusCancelled ResultStatus = "cancelled"
	// StatusInvalid means the ingredient failed validation and no network call was made.
	StatusInvalid ResultStatus = "invalid"
)

// ResolutionResult is the outcome of resolving one ingredient.
type ResolutionResult struct {
	ID         string            `json:"id"`
	Ingredient IngredientRequest `json:"ingredient"`
	// Attempts is the search history in ladder order, truncated at the first success.
	Attempts []SearchAttempt `json:"attempts"`
	// Candidates is the deduplicated, ranked candidate list from the winning term.
	Candidates []Candidate  `json:"candidates,omitempty"`
	Best       *Candidate   `json:"best,omitempty"`
	Success    bool         `json:"success"`
	Status     ResultStatus `json:"status"`
	// Error carries the diagnostic for invalid or internally failed
	// resolutions; per-term failures live on the attempts instead.
	Error string `json:"error,omitempty"`
}

// BudgetCompliance classifies total batch cost against the target budget.
type BudgetCompliance string

const (
	WithinBudget      BudgetCompliance = "within_budget"
	SlightlyOver      BudgetCompliance = "slightly_over"
	SignificantlyOver BudgetCompliance = "significantly_over"
)

// ResolutionBatch is the complete output document for one resolution call.
// It is not persisted here; the caller owns storage and further use.
type ResolutionBatch struct {
	ID      string             `json:"id"`
	Results []ResolutionResult `json:"results"`
	// TotalCost is the sum of Best.Price over successful results.
	TotalCost   float64          `json:"total_cost"`
	SuccessRate float64          `json:"success_rate"`
	Budget      float64          `json:"budget"`
	Compliance  BudgetCompliance `json:"budget_compliance"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
}

// Successes returns how many results in the batch resolved.
func (b *ResolutionBatch) Successes() int {
	n := 0
	for _, r := range b.Results {
		if r.Success {
			n++
		}
	}
	return n
}

// ClassifyBudget maps a total cost onto the compliance ladder: within budget,
// up to 20% over, or beyond that.
func ClassifyBudget(totalCost, budget float64) BudgetCompliance {
	switch {
	case totalCost <= budget:
		return WithinBudget
	case totalCost <= budget*1.2:
		return SlightlyOver
	default:
		return SignificantlyOver
	}
}
