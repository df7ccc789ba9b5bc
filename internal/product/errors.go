package product

import "errors"

// Validation sentinels. These fail before any network call is made.
var (
	ErrEmptyIngredient = errors.New("ingredient name is empty")
	ErrNoIngredients   = errors.New("no ingredients to resolve")
	ErrInvalidBudget   = errors.New("budget must be greater than zero")
)
