package compatibility

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type fakeLookup struct {
	mu      sync.Mutex
	items   []models.NutritionItem
	err     error
	delay   time.Duration
	queries []string
}

func (f *fakeLookup) Lookup(ctx context.Context, query string) ([]models.NutritionItem, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func macros(p, c, f float64) []models.NutritionItem {
	return []models.NutritionItem{{Name: "combined", ProteinG: p, CarbohydratesTotalG: c, FatTotalG: f}}
}

func newTestScorer(t *testing.T, lookup NutritionLookup) *Scorer {
	return NewScorer(lookup, time.Second, logger.NewTestLogger(t))
}

func nathan() *models.UserProfile {
	return &models.UserProfile{
		ID:   "nathan",
		Name: "Nathan",
		IngredientsList: []models.IngredientItem{
			{Ingredient: "Cabbage", Quantity: "500g"},
			{Ingredient: "Pepper", Quantity: "200g"},
			{Ingredient: "Olive Oil", Quantity: "0.25L"},
		},
		DietaryGoals:        models.DietaryGoals{Protein: 40, Carbs: 30, Fats: 30},
		DietaryRestrictions: models.DietaryRestrictions{Allergies: []string{"peanuts"}},
	}
}

func other() *models.UserProfile {
	return &models.UserProfile{
		ID:              "dana",
		Name:            "Dana",
		IngredientsList: []models.IngredientItem{{Ingredient: "Rice", Quantity: "1kg"}},
	}
}

// ==========================
// Score
// ==========================

func TestScore_EndToEndScenario(t *testing.T) {
	lookup := &fakeLookup{items: macros(40, 30, 30)}
	s := newTestScorer(t, lookup)

	current := nathan()
	current.Preferences.Cuisines = []string{"Italian"}
	peer := other()
	peer.Preferences.Cuisines = []string{"Korean"}

	res := s.Score(context.Background(), current, peer)

	assert.Equal(t, 70, res.Score)
	assert.Equal(t, GoalCompletion{Protein: 100, Carbs: 100, Fats: 100}, res.GoalCompletion)
}

func TestScore_PerfectPair(t *testing.T) {
	s := newTestScorer(t, &fakeLookup{items: macros(80, 60, 60)})

	current := nathan()
	current.Preferences.Cuisines = []string{"Italian", "Persian"}
	peer := other()
	peer.Preferences.Cuisines = []string{"Persian", "Italian", "Jamaican"}

	res := s.Score(context.Background(), current, peer)
	assert.Equal(t, 100, res.Score)
}

func TestScore_LookupFailureDegradesIngredients(t *testing.T) {
	tests := []struct {
		name   string
		lookup *fakeLookup
	}{
		{"error", &fakeLookup{err: errors.New("upstream 503")}},
		{"empty result", &fakeLookup{items: []models.NutritionItem{}}},
		{"timeout", &fakeLookup{items: macros(40, 30, 30), delay: 200 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScorer(tt.lookup, 20*time.Millisecond, logger.NewTestLogger(t))

			res := s.Score(context.Background(), nathan(), other())

			assert.Equal(t, GoalCompletion{}, res.GoalCompletion)
			// restrictions 1.0, cuisines 0
			assert.Equal(t, 30, res.Score)
		})
	}
}

func TestScore_NotCancelledByCaller(t *testing.T) {
	lookup := &fakeLookup{items: macros(40, 30, 30), delay: 20 * time.Millisecond}
	s := newTestScorer(t, lookup)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Score(ctx, nathan(), other())
	assert.Equal(t, 70, res.Score)
}

func TestScore_BoundsHold(t *testing.T) {
	lookups := [][]models.NutritionItem{
		macros(0, 0, 0),
		macros(1e6, 1e6, 1e6),
		macros(13.3, 7.7, 29.9),
	}
	profiles := []*models.UserProfile{nathan(), other(), {ID: "empty"}}
	profiles[1].DietaryRestrictions = models.DietaryRestrictions{
		Vegetarian: true, Vegan: true, Kosher: true, GlutenFree: true, DairyFree: true,
		Allergies: []string{"Cabbage"},
	}

	for _, items := range lookups {
		s := newTestScorer(t, &fakeLookup{items: items})
		for _, a := range profiles {
			for _, b := range profiles {
				res := s.Score(context.Background(), a, b)
				assert.GreaterOrEqual(t, res.Score, 0)
				assert.LessOrEqual(t, res.Score, 100)
				for _, pct := range []int{res.GoalCompletion.Protein, res.GoalCompletion.Carbs, res.GoalCompletion.Fats} {
					assert.GreaterOrEqual(t, pct, 0)
					assert.LessOrEqual(t, pct, 100)
				}
			}
		}
	}
}

// ==========================
// Ingredients sub-score
// ==========================

func TestIngredientsScore(t *testing.T) {
	tests := []struct {
		name       string
		goals      models.DietaryGoals
		items      []models.NutritionItem
		wantScore  float64
		completion GoalCompletion
	}{
		{
			name:       "exact goals",
			goals:      models.DietaryGoals{Protein: 40, Carbs: 30, Fats: 30},
			items:      macros(40, 30, 30),
			wantScore:  1,
			completion: GoalCompletion{100, 100, 100},
		},
		{
			name:       "zero goals with all-zero result",
			goals:      models.DietaryGoals{},
			items:      macros(0, 0, 0),
			wantScore:  1,
			completion: GoalCompletion{100, 100, 100},
		},
		{
			name:       "half of every goal",
			goals:      models.DietaryGoals{Protein: 40, Carbs: 30, Fats: 30},
			items:      macros(20, 15, 15),
			wantScore:  0.5,
			completion: GoalCompletion{50, 50, 50},
		},
		{
			name:       "over goal is capped",
			goals:      models.DietaryGoals{Protein: 10, Carbs: 10, Fats: 10},
			items:      macros(100, 5, 0),
			wantScore:  150.0 / 300,
			completion: GoalCompletion{100, 50, 0},
		},
		{
			name:       "items are summed and percentages rounded",
			goals:      models.DietaryGoals{Protein: 30, Carbs: 30, Fats: 30},
			items:      append(macros(5, 10, 0), macros(5, 0.1, 0)...),
			wantScore:  (100.0/3 + 101.0/3) / 300,
			completion: GoalCompletion{33, 34, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScorer(t, &fakeLookup{items: tt.items})
			current := nathan()
			current.DietaryGoals = tt.goals

			score, completion := s.ingredientsScore(context.Background(), current, other())

			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.Equal(t, tt.completion, completion)
		})
	}
}

func TestIngredientsScore_UsesOnlyCurrentUsersGoals(t *testing.T) {
	s := newTestScorer(t, &fakeLookup{items: macros(40, 30, 30)})
	current := nathan()
	peer := other()
	peer.DietaryGoals = models.DietaryGoals{Protein: 400, Carbs: 300, Fats: 300}

	score, _ := s.ingredientsScore(context.Background(), current, peer)
	assert.Equal(t, 1.0, score)
}

func TestBuildNutritionQuery(t *testing.T) {
	lookup := &fakeLookup{items: macros(1, 1, 1)}
	s := newTestScorer(t, lookup)

	s.Score(context.Background(), nathan(), other())

	require.Len(t, lookup.queries, 1)
	assert.Equal(t, "500g Cabbage, 200g Pepper, 0.25L Olive Oil, 1kg Rice", lookup.queries[0])
}

func TestBuildNutritionQuery_Empty(t *testing.T) {
	lookup := &fakeLookup{items: macros(1, 1, 1)}
	s := newTestScorer(t, lookup)

	score, completion := s.ingredientsScore(context.Background(), &models.UserProfile{}, &models.UserProfile{})

	assert.Zero(t, score)
	assert.Equal(t, GoalCompletion{}, completion)
	assert.Empty(t, lookup.queries)
}

// ==========================
// Restrictions sub-score
// ==========================

func TestRestrictionsScore(t *testing.T) {
	tests := []struct {
		name    string
		current models.DietaryRestrictions
		other   models.DietaryRestrictions
		want    float64
	}{
		{"no flags", models.DietaryRestrictions{}, models.DietaryRestrictions{}, 1},
		{"shared flag", models.DietaryRestrictions{Vegan: true}, models.DietaryRestrictions{Vegan: true}, 1},
		{"one mismatch", models.DietaryRestrictions{Kosher: true}, models.DietaryRestrictions{}, 0.7},
		{"other has extra flag", models.DietaryRestrictions{}, models.DietaryRestrictions{GlutenFree: true}, 1},
		{"three mismatches", models.DietaryRestrictions{Vegetarian: true, Vegan: true, DairyFree: true}, models.DietaryRestrictions{}, 0.1},
		{"five mismatches floored", models.DietaryRestrictions{Vegetarian: true, Vegan: true, Kosher: true, GlutenFree: true, DairyFree: true}, models.DietaryRestrictions{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &models.UserProfile{DietaryRestrictions: tt.current}
			b := &models.UserProfile{DietaryRestrictions: tt.other}
			assert.InDelta(t, tt.want, restrictionsScore(a, b), 1e-9)
		})
	}
}

func TestRestrictionsScore_IsDirectional(t *testing.T) {
	a := &models.UserProfile{DietaryRestrictions: models.DietaryRestrictions{Vegetarian: true}}
	b := &models.UserProfile{}

	assert.InDelta(t, 0.7, restrictionsScore(a, b), 1e-9)
	assert.InDelta(t, 1.0, restrictionsScore(b, a), 1e-9)
	assert.NotEqual(t, restrictionsScore(a, b), restrictionsScore(b, a))
}

func TestRestrictionsScore_AllergyConflict(t *testing.T) {
	current := &models.UserProfile{DietaryRestrictions: models.DietaryRestrictions{
		Kosher:    true,
		Allergies: []string{"peanuts", "shrimp"},
	}}
	safe := &models.UserProfile{IngredientsList: []models.IngredientItem{{Ingredient: "rice", Quantity: "1kg"}}}
	conflicting := &models.UserProfile{IngredientsList: []models.IngredientItem{
		{Ingredient: "peanuts", Quantity: "100g"},
		{Ingredient: "shrimp", Quantity: "200g"},
	}}

	base := restrictionsScore(current, safe)
	withConflict := restrictionsScore(current, conflicting)

	// flat penalty regardless of how many allergens match
	assert.InDelta(t, 0.5, base-withConflict, 1e-9)
}

func TestRestrictionsScore_AllergyMatchIsExact(t *testing.T) {
	current := &models.UserProfile{DietaryRestrictions: models.DietaryRestrictions{Allergies: []string{"peanuts"}}}
	peer := &models.UserProfile{IngredientsList: []models.IngredientItem{{Ingredient: "Peanuts"}}}

	assert.Equal(t, 1.0, restrictionsScore(current, peer))
}

func TestRestrictionsScore_ClampOnlyAtEnd(t *testing.T) {
	current := &models.UserProfile{DietaryRestrictions: models.DietaryRestrictions{
		Vegetarian: true, Vegan: true, Kosher: true,
		Allergies: []string{"peanuts"},
	}}
	peer := &models.UserProfile{IngredientsList: []models.IngredientItem{{Ingredient: "peanuts"}}}

	// 1 - 0.9 - 0.5 is negative before the floor
	assert.Equal(t, 0.0, restrictionsScore(current, peer))
}

// ==========================
// Cuisines sub-score
// ==========================

func TestCuisinesScore(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"Italian", "Korean"}, []string{"Korean", "Italian"}, 1},
		{"first empty", nil, []string{"Italian"}, 0},
		{"second empty", []string{"Italian"}, []string{}, 0},
		{"both empty", nil, nil, 0},
		{"disjoint", []string{"Italian"}, []string{"Mexican"}, 0},
		{"smaller set fully covered", []string{"Indian"}, []string{"Indian", "Chinese", "Persian"}, 1},
		{"partial overlap", []string{"Indian", "Chinese"}, []string{"Indian", "Mexican", "Persian"}, 0.5},
		{"duplicates count once", []string{"Indian", "Indian"}, []string{"Indian", "Mexican"}, 1},
		{"case sensitive", []string{"italian"}, []string{"Italian"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cuisinesScore(tt.a, tt.b), 1e-9)
		})
	}
}

func TestGoalCompletionPct(t *testing.T) {
	assert.Equal(t, 100.0, goalCompletionPct(0, 0))
	assert.Equal(t, 100.0, goalCompletionPct(5, 0))
	assert.Equal(t, 50.0, goalCompletionPct(10, 20))
	assert.Equal(t, 100.0, goalCompletionPct(30, 20))
}
