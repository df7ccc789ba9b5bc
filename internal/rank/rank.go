// Package rank scores catalog candidates against the search term that found
// them and establishes the canonical ordering: relevance descending, price
// ascending on ties. Index 0 after Dedupe and Sort is the best candidate.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/FranksOps/forager/internal/product"
)

// Score computes how well a product name matches a search term, in [0,1].
//
// A case-folded substring match scores 1.0. Otherwise the score is the
// fraction of term words present in the name, plus a 0.2 bonus when the name
// starts with the term, capped at 1.0. A term with no words scores 0.
func Score(name, term string) float64 {
	nameLower := strings.ToLower(name)
	termLower := strings.ToLower(term)

	if termLower != "" && strings.Contains(nameLower, termLower) {
		return 1.0
	}

	termWords := strings.Fields(termLower)
	if len(termWords) == 0 {
		return 0
	}

	nameWords := make(map[string]struct{})
	for _, w := range strings.Fields(nameLower) {
		nameWords[w] = struct{}{}
	}

	common := 0
	for _, w := range termWords {
		if _, ok := nameWords[w]; ok {
			common++
		}
	}

	score := float64(common) / float64(len(termWords))

	if strings.HasPrefix(nameLower, termLower) {
		score += 0.2
	}

	return math.Min(1.0, score)
}

// Apply scores every candidate in place against the given term.
func Apply(term string, candidates []product.Candidate) {
	for i := range candidates {
		candidates[i].Relevance = Score(candidates[i].Name, term)
	}
}

// Dedupe removes candidates sharing a (name, price) pair, comparing names
// case-insensitively and prices rounded to cents. The first occurrence wins
// and input order is otherwise preserved.
func Dedupe(candidates []product.Candidate) []product.Candidate {
	type key struct {
		name  string
		cents int64
	}

	seen := make(map[key]struct{}, len(candidates))
	out := make([]product.Candidate, 0, len(candidates))

	for _, c := range candidates {
		k := key{
			name:  strings.ToLower(strings.TrimSpace(c.Name)),
			cents: int64(math.Round(c.Price * 100)),
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}

	return out
}

// Sort orders candidates by relevance descending, then price ascending.
// The sort is stable, so equal candidates keep their extraction order and
// repeated runs over identical input produce identical output.
func Sort(candidates []product.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Relevance != candidates[j].Relevance {
			return candidates[i].Relevance > candidates[j].Relevance
		}
		return candidates[i].Price < candidates[j].Price
	})
}
