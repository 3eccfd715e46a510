// internal/workers/recipe/generate-recipes/models.go
package generaterecipes

import "mealmatch-workers/internal/models"

type Input struct {
	CurrentUserID  string              `json:"currentUserId"`
	SelectedUserID string              `json:"selectedUserId"`
	CurrentUser    *models.UserProfile `json:"currentUser,omitempty"`
	SelectedUser   *models.UserProfile `json:"selectedUser,omitempty"`
}

type Output struct {
	RecipeID string          `json:"recipeId"`
	Markdown string          `json:"markdown"`
	Recipes  []models.Recipe `json:"recipes"`
	Cached   bool            `json:"cached"`
}
