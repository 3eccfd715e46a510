// internal/workers/recipe/generate-recipes/prompt.go
package generaterecipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mealmatch-workers/internal/models"
)

const structuringTemperature = 0.1

var errNotJSONArray = errors.New("structured response is not a JSON array")

func combinedIngredients(a, b *models.UserProfile) []string {
	out := make([]string, 0, len(a.IngredientsList)+len(b.IngredientsList))
	for _, p := range []*models.UserProfile{a, b} {
		for _, item := range p.IngredientsList {
			out = append(out, fmt.Sprintf("%s (%s)", item.Ingredient, item.Quantity))
		}
	}
	return out
}

// unionOf keeps first-seen order.
func unionOf(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func combinedRestrictions(a, b *models.UserProfile) []string {
	ra, rb := a.DietaryRestrictions, b.DietaryRestrictions
	flags := []struct {
		name string
		on   bool
	}{
		{"vegetarian", ra.Vegetarian || rb.Vegetarian},
		{"vegan", ra.Vegan || rb.Vegan},
		{"kosher", ra.Kosher || rb.Kosher},
		{"glutenFree", ra.GlutenFree || rb.GlutenFree},
		{"dairyFree", ra.DairyFree || rb.DairyFree},
	}

	var out []string
	for _, f := range flags {
		if f.on {
			out = append(out, f.name)
		}
	}
	return append(out, unionOf(ra.Allergies, rb.Allergies)...)
}

func buildRecipePrompt(a, b *models.UserProfile) string {
	var sb strings.Builder
	sb.WriteString("Generate 3 recipes that:\n")
	fmt.Fprintf(&sb, "1. Use these ingredients: %s\n", strings.Join(combinedIngredients(a, b), ", "))
	fmt.Fprintf(&sb, "2. Match these cuisine preferences: %s\n", strings.Join(unionOf(a.Preferences.Cuisines, b.Preferences.Cuisines), ", "))
	fmt.Fprintf(&sb, "3. Follow these dietary restrictions: %s\n", strings.Join(combinedRestrictions(a, b), ", "))
	sb.WriteString(`
Format each recipe exactly like this:

## [Recipe Name]
### [Cuisine Type]

[2-3 sentence description of the dish explaining what makes it special and how it uses the available ingredients and bold the ingredients used]

---`)
	return sb.String()
}

func buildStructuringPrompt(markdown string) string {
	return `Convert these markdown recipes into a JSON array where each recipe has:
- title: The recipe name without brackets
- cuisine: The cuisine type without brackets
- description: The description paragraph

Input markdown:
` + markdown + `

Return ONLY a raw JSON array with no markdown formatting, no backticks, and no 'json' prefix. The response should start with '[' and end with ']'.`
}

// parseRecipes decodes the structuring response. Models sometimes wrap the
// array in a code fence despite the instructions, so that is stripped first.
func parseRecipes(raw string) ([]models.Recipe, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start, end := strings.Index(s, "["), strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return nil, errNotJSONArray
	}

	var recipes []models.Recipe
	if err := json.Unmarshal([]byte(s[start:end+1]), &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("%w: empty array", errNotJSONArray)
	}
	return recipes, nil
}
