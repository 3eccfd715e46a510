package repository

import (
	"context"
	"fmt"
	"time"

	"mealmatch-workers/internal/models"

	"github.com/google/uuid"
)

// AddFavorite saves a recipe for the user. A second save of the same recipeId
// returns ErrFavoriteExists.
func (r *Repository) AddFavorite(ctx context.Context, fav models.Favorite) (*models.Favorite, error) {
	fav.ID = uuid.New().String()
	fav.CreatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO favorites (id, user_id, recipe_id, title, cuisine, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, recipe_id) DO NOTHING`,
		fav.ID, fav.UserID, fav.RecipeID, fav.Title, fav.Cuisine, fav.Description, fav.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFavoriteExists, fav.RecipeID)
	}
	return &fav, nil
}

// RemoveFavorite deletes the recipe from the user's favorites. removed is
// false when it was not there.
func (r *Repository) RemoveFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, recipe_id, title, cuisine, description, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	favorites := []models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.RecipeID, &f.Title, &f.Cuisine, &f.Description, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}
