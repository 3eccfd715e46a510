package compatibility

import (
	"context"
	"math"
	"strings"
	"time"

	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mealmatch-workers/compatibility"

type Scorer struct {
	lookup  NutritionLookup
	timeout time.Duration
	logger  logger.Logger
	tracer  trace.Tracer
}

// NewScorer builds a Scorer. timeout bounds each nutrition lookup; zero means
// no deadline beyond the lookup's own.
func NewScorer(lookup NutritionLookup, timeout time.Duration, log logger.Logger) *Scorer {
	return &Scorer{
		lookup:  lookup,
		timeout: timeout,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// Score rates how well other pairs with current. It never fails: a missing
// or failed nutrition lookup only zeroes the ingredients component.
func (s *Scorer) Score(ctx context.Context, current, other *models.UserProfile) Result {
	ctx, span := s.tracer.Start(ctx, "compatibility.Score", trace.WithAttributes(
		attribute.String("user.current", current.ID),
		attribute.String("user.other", other.ID),
	))
	defer span.End()

	ingredients, completion := s.ingredientsScore(ctx, current, other)
	restrictions := restrictionsScore(current, other)
	cuisines := cuisinesScore(current.Preferences.Cuisines, other.Preferences.Cuisines)

	total := int(math.Round(
		IngredientsWeight*ingredients +
			RestrictionsWeight*restrictions +
			CuisinesWeight*cuisines,
	))

	span.SetAttributes(
		attribute.Float64("score.ingredients", ingredients),
		attribute.Float64("score.restrictions", restrictions),
		attribute.Float64("score.cuisines", cuisines),
		attribute.Int("score.total", total),
	)
	metrics.CompatibilityScore.Observe(float64(total))

	s.logger.Debug("compatibility scored", map[string]interface{}{
		"currentUserId": current.ID,
		"otherUserId":   other.ID,
		"ingredients":   ingredients,
		"restrictions":  restrictions,
		"cuisines":      cuisines,
		"score":         total,
	})

	return Result{Score: total, GoalCompletion: completion}
}

func (s *Scorer) ingredientsScore(ctx context.Context, current, other *models.UserProfile) (float64, GoalCompletion) {
	query := BuildNutritionQuery(current, other)
	if query == "" {
		return 0, GoalCompletion{}
	}

	// a started score runs to completion even if the caller goes away
	lookupCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(lookupCtx, s.timeout)
		defer cancel()
	}

	items, err := s.lookup.Lookup(lookupCtx, query)
	if err != nil {
		s.logger.Warn("nutrition lookup failed, ingredients score degraded", map[string]interface{}{
			"currentUserId": current.ID,
			"otherUserId":   other.ID,
			"error":         err,
		})
		return 0, GoalCompletion{}
	}
	if len(items) == 0 {
		return 0, GoalCompletion{}
	}

	totals := SumNutrients(items)
	goals := current.DietaryGoals

	protein := goalCompletionPct(totals.Protein, goals.Protein)
	carbs := goalCompletionPct(totals.Carbs, goals.Carbs)
	fats := goalCompletionPct(totals.Fats, goals.Fats)

	return (protein + carbs + fats) / 300, GoalCompletion{
		Protein: int(math.Round(protein)),
		Carbs:   int(math.Round(carbs)),
		Fats:    int(math.Round(fats)),
	}
}

// BuildNutritionQuery renders both ingredient lists, current user first, as
// "<quantity> <ingredient>" entries joined by ", ".
func BuildNutritionQuery(current, other *models.UserProfile) string {
	parts := make([]string, 0, len(current.IngredientsList)+len(other.IngredientsList))
	for _, list := range [][]models.IngredientItem{current.IngredientsList, other.IngredientsList} {
		for _, item := range list {
			parts = append(parts, strings.TrimSpace(item.Quantity+" "+item.Ingredient))
		}
	}
	return strings.Join(parts, ", ")
}

func SumNutrients(items []models.NutritionItem) NutrientTotals {
	var t NutrientTotals
	for _, it := range items {
		t.Protein += it.ProteinG
		t.Carbs += it.CarbohydratesTotalG
		t.Fats += it.FatTotalG
	}
	return t
}

// goalCompletionPct is total as a percentage of goal, capped at 100.
// A zero goal is already met.
func goalCompletionPct(total, goal float64) float64 {
	if goal == 0 {
		return 100
	}
	return math.Min(total/goal*100, 100)
}

// restrictionsScore is directional: only flags current holds and other lacks
// are penalised. The floor is applied once, after every penalty.
func restrictionsScore(current, other *models.UserProfile) float64 {
	c, o := current.DietaryRestrictions, other.DietaryRestrictions

	score := 1.0
	flags := [][2]bool{
		{c.Vegetarian, o.Vegetarian},
		{c.Vegan, o.Vegan},
		{c.Kosher, o.Kosher},
		{c.GlutenFree, o.GlutenFree},
		{c.DairyFree, o.DairyFree},
	}
	for _, f := range flags {
		if f[0] && !f[1] {
			score -= restrictionFlagPenalty
		}
	}

	if hasAllergyConflict(c.Allergies, other.IngredientsList) {
		score -= allergyPenalty
	}

	return math.Max(0, score)
}

func hasAllergyConflict(allergies []string, ingredients []models.IngredientItem) bool {
	if len(allergies) == 0 || len(ingredients) == 0 {
		return false
	}
	names := make(map[string]struct{}, len(ingredients))
	for _, it := range ingredients {
		names[it.Ingredient] = struct{}{}
	}
	for _, a := range allergies {
		if _, ok := names[a]; ok {
			return true
		}
	}
	return false
}

// cuisinesScore is |A∩B| / min(|A|,|B|). Either set empty gives 0.
func cuisinesScore(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for c := range setA {
		if _, ok := setB[c]; ok {
			shared++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return math.Min(float64(shared)/float64(smaller), 1)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
