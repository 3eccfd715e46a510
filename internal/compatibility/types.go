package compatibility

import (
	"context"

	"mealmatch-workers/internal/models"
)

// Sub-score weights. They sum to 100 so a perfect pair scores 100.
const (
	IngredientsWeight  = 40
	RestrictionsWeight = 30
	CuisinesWeight     = 30
)

const (
	restrictionFlagPenalty = 0.3
	allergyPenalty         = 0.5
)

// NutritionLookup resolves a free-text ingredient list into per-item macros.
type NutritionLookup interface {
	Lookup(ctx context.Context, query string) ([]models.NutritionItem, error)
}

// NutrientTotals is the macro sum over a lookup result, in grams.
type NutrientTotals struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fats    float64 `json:"fats"`
}

// GoalCompletion holds integer percentages in [0,100].
type GoalCompletion struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fats    int `json:"fats"`
}

type Result struct {
	Score          int            `json:"score"`
	GoalCompletion GoalCompletion `json:"goalCompletion"`
}

// RankedProfile is a candidate with its score attached. The embedded profile
// keeps the candidate's fields at the top level when encoded.
type RankedProfile struct {
	models.UserProfile
	CompatibilityScore Result `json:"compatibilityScore"`
}
