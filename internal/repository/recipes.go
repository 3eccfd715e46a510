package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mealmatch-workers/internal/models"

	"github.com/google/uuid"
)

// FindRecipeForUsers returns the latest recipe set generated for the pair, or
// nil when none exists.
func (r *Repository) FindRecipeForUsers(ctx context.Context, userA, userB string) (*models.RecipeSet, error) {
	a, b := orderedPair(userA, userB)

	var set models.RecipeSet
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, markdown, recipes, created_at
		FROM recipes
		WHERE user_a = $1 AND user_b = $2
		ORDER BY created_at DESC
		LIMIT 1`, a, b).Scan(&set.ID, &set.Markdown, &raw, &set.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}

	set.UserIDs = []string{a, b}
	set.Recipes = []models.Recipe{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &set.Recipes); err != nil {
			return nil, fmt.Errorf("decode stored recipes: %w", err)
		}
	}
	return &set, nil
}

// SaveRecipe stores a generated set for the pair and fills in its id.
func (r *Repository) SaveRecipe(ctx context.Context, userA, userB, markdown string, recipes []models.Recipe) (*models.RecipeSet, error) {
	a, b := orderedPair(userA, userB)
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	raw, err := json.Marshal(recipes)
	if err != nil {
		return nil, err
	}

	set := &models.RecipeSet{
		ID:        uuid.New().String(),
		UserIDs:   []string{a, b},
		Markdown:  markdown,
		Recipes:   recipes,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipes (id, user_a, user_b, markdown, recipes, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		set.ID, a, b, set.Markdown, raw, set.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert recipe set: %w", err)
	}
	return set, nil
}
