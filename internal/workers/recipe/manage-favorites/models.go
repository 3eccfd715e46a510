// internal/workers/recipe/manage-favorites/models.go
package managefavorites

import "mealmatch-workers/internal/models"

const (
	OperationAdd    = "add"
	OperationRemove = "remove"
	OperationList   = "list"
)

type Input struct {
	Operation string          `json:"operation"`
	UserID    string          `json:"userId"`
	Recipe    *FavoriteRecipe `json:"recipe,omitempty"`
	RecipeID  string          `json:"recipeId,omitempty"`
}

// FavoriteRecipe is the recipe card being saved, as returned by
// generate-recipes or query-elasticsearch.
type FavoriteRecipe struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Cuisine     string `json:"cuisine"`
	Description string `json:"description"`
}

// Output always carries the user's favorites after the operation.
type Output struct {
	Favorites []models.Favorite `json:"favorites"`
	Added     *models.Favorite  `json:"added,omitempty"`
	Removed   bool              `json:"removed"`
}

const InputSchema = `{
  "type": "object",
  "required": ["operation", "userId"],
  "properties": {
    "operation": {"type": "string", "minLength": 1},
    "userId":    {"type": "string", "minLength": 1},
    "recipeId":  {"type": "string"},
    "recipe": {
      "type": "object",
      "required": ["id", "title"],
      "properties": {
        "id":          {"type": "string", "minLength": 1},
        "title":       {"type": "string", "minLength": 1},
        "cuisine":     {"type": "string"},
        "description": {"type": "string"}
      }
    }
  }
}`
