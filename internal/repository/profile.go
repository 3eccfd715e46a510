package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mealmatch-workers/internal/common/database"
	"mealmatch-workers/internal/models"

	"github.com/lib/pq"
)

const profileSelect = `
	SELECT u.id, u.name, COALESCE(u.email, ''), COALESCE(u.phone, ''),
	       COALESCE(u.image, ''), COALESCE(u.location, ''), u.created_at,
	       COALESCE(p.cuisines, '{}'),
	       COALESCE(r.vegetarian, false), COALESCE(r.vegan, false), COALESCE(r.kosher, false),
	       COALESCE(r.gluten_free, false), COALESCE(r.dairy_free, false), COALESCE(r.allergies, '{}'),
	       COALESCE(a.air_fryer, false), COALESCE(a.microwave, false), COALESCE(a.oven, false),
	       COALESCE(a.stove_top, false), COALESCE(a.sous_vide, false), COALESCE(a.deep_fryer, false),
	       COALESCE(a.blender, false), COALESCE(a.instant_pot, false),
	       COALESCE(g.protein, 0), COALESCE(g.carbs, 0), COALESCE(g.fats, 0)
	FROM users u
	LEFT JOIN user_preferences p ON p.user_id = u.id
	LEFT JOIN dietary_restrictions r ON r.user_id = u.id
	LEFT JOIN available_appliances a ON a.user_id = u.id
	LEFT JOIN dietary_goals g ON g.user_id = u.id
	WHERE u.id = ANY($1)`

const ingredientsSelect = `
	SELECT user_id, ingredient, quantity
	FROM ingredients
	WHERE user_id = ANY($1)
	ORDER BY user_id, position`

// GetProfile returns the full profile for userID, served from cache when possible.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if r.redis != nil {
		var cached models.UserProfile
		found, err := database.GetJSON(ctx, r.redis, profileCacheKey(userID), &cached)
		if err != nil {
			r.logger.Warn("profile cache read failed", map[string]interface{}{"userId": userID, "error": err})
		}
		if found {
			return &cached, nil
		}
	}

	profiles, err := r.loadProfiles(ctx, []string{userID})
	if err != nil {
		return nil, err
	}
	profile, ok := profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	if r.redis != nil {
		if err := database.SetJSON(ctx, r.redis, profileCacheKey(userID), profile, r.cacheTTL); err != nil {
			r.logger.Warn("profile cache write failed", map[string]interface{}{"userId": userID, "error": err})
		}
	}
	return profile, nil
}

func (r *Repository) UserExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %s: %w", userID, err)
	}
	return exists, nil
}

// CandidatePool returns every user other than userID that userID has not
// liked, disliked or matched, oldest account first.
func (r *Repository) CandidatePool(ctx context.Context, userID string) ([]models.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id FROM users u
		WHERE u.id <> $1
		  AND NOT EXISTS (SELECT 1 FROM likes l WHERE l.user_id = $1 AND l.liked_user_id = u.id)
		  AND NOT EXISTS (SELECT 1 FROM dislikes d WHERE d.user_id = $1 AND d.disliked_user_id = u.id)
		  AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.user_id = $1 AND m.matched_user_id = u.id)
		ORDER BY u.created_at, u.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query candidate ids: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.UserProfile{}, nil
	}

	profiles, err := r.loadProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	pool := make([]models.UserProfile, 0, len(ids))
	for _, id := range ids {
		if p, ok := profiles[id]; ok {
			pool = append(pool, *p)
		}
	}
	return pool, nil
}

func (r *Repository) loadProfiles(ctx context.Context, ids []string) (map[string]*models.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, profileSelect, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*models.UserProfile, len(ids))
	for rows.Next() {
		var p models.UserProfile
		var cuisines, allergies []string
		err := rows.Scan(
			&p.ID, &p.Name, &p.Email, &p.Phone, &p.Image, &p.Location, &p.CreatedAt,
			pq.Array(&cuisines),
			&p.DietaryRestrictions.Vegetarian, &p.DietaryRestrictions.Vegan, &p.DietaryRestrictions.Kosher,
			&p.DietaryRestrictions.GlutenFree, &p.DietaryRestrictions.DairyFree, pq.Array(&allergies),
			&p.AvailableAppliances.AirFryer, &p.AvailableAppliances.Microwave, &p.AvailableAppliances.Oven,
			&p.AvailableAppliances.StoveTop, &p.AvailableAppliances.SousVide, &p.AvailableAppliances.DeepFryer,
			&p.AvailableAppliances.Blender, &p.AvailableAppliances.InstantPot,
			&p.DietaryGoals.Protein, &p.DietaryGoals.Carbs, &p.DietaryGoals.Fats,
		)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Preferences.Cuisines = nonNil(cuisines)
		p.DietaryRestrictions.Allergies = nonNil(allergies)
		p.IngredientsList = []models.IngredientItem{}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ingRows, err := r.db.QueryContext(ctx, ingredientsSelect, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var userID string
		var item models.IngredientItem
		if err := ingRows.Scan(&userID, &item.Ingredient, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		if p, ok := out[userID]; ok {
			p.IngredientsList = append(p.IngredientsList, item)
		}
	}
	return out, ingRows.Err()
}

// UpdateProfile applies a partial update in one transaction. The ingredient
// list, when present, replaces the stored one.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserProfile, error) {
	exists, err := r.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := updateUserColumns(ctx, tx, userID, upd); err != nil {
			return err
		}

		if upd.Preferences != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_preferences (user_id, cuisines) VALUES ($1, $2)
				ON CONFLICT (user_id) DO UPDATE SET cuisines = EXCLUDED.cuisines`,
				userID, pq.Array(nonNil(upd.Preferences.Cuisines))); err != nil {
				return fmt.Errorf("update preferences: %w", err)
			}
		}

		if d := upd.DietaryRestrictions; d != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO dietary_restrictions (user_id, vegetarian, vegan, kosher, gluten_free, dairy_free, allergies)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (user_id) DO UPDATE SET
					vegetarian = EXCLUDED.vegetarian, vegan = EXCLUDED.vegan, kosher = EXCLUDED.kosher,
					gluten_free = EXCLUDED.gluten_free, dairy_free = EXCLUDED.dairy_free, allergies = EXCLUDED.allergies`,
				userID, d.Vegetarian, d.Vegan, d.Kosher, d.GlutenFree, d.DairyFree, pq.Array(nonNil(d.Allergies))); err != nil {
				return fmt.Errorf("update dietary restrictions: %w", err)
			}
		}

		if a := upd.AvailableAppliances; a != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO available_appliances
					(user_id, air_fryer, microwave, oven, stove_top, sous_vide, deep_fryer, blender, instant_pot)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (user_id) DO UPDATE SET
					air_fryer = EXCLUDED.air_fryer, microwave = EXCLUDED.microwave, oven = EXCLUDED.oven,
					stove_top = EXCLUDED.stove_top, sous_vide = EXCLUDED.sous_vide, deep_fryer = EXCLUDED.deep_fryer,
					blender = EXCLUDED.blender, instant_pot = EXCLUDED.instant_pot`,
				userID, a.AirFryer, a.Microwave, a.Oven, a.StoveTop, a.SousVide, a.DeepFryer, a.Blender, a.InstantPot); err != nil {
				return fmt.Errorf("update appliances: %w", err)
			}
		}

		if g := upd.DietaryGoals; g != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO dietary_goals (user_id, protein, carbs, fats) VALUES ($1, $2, $3, $4)
				ON CONFLICT (user_id) DO UPDATE SET
					protein = EXCLUDED.protein, carbs = EXCLUDED.carbs, fats = EXCLUDED.fats`,
				userID, g.Protein, g.Carbs, g.Fats); err != nil {
				return fmt.Errorf("update dietary goals: %w", err)
			}
		}

		if upd.IngredientsList != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE user_id = $1`, userID); err != nil {
				return fmt.Errorf("clear ingredients: %w", err)
			}
			for i, item := range *upd.IngredientsList {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO ingredients (user_id, ingredient, quantity, position) VALUES ($1, $2, $3, $4)`,
					userID, item.Ingredient, item.Quantity, i); err != nil {
					return fmt.Errorf("insert ingredient %q: %w", item.Ingredient, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.invalidateProfile(ctx, userID)
	return r.GetProfile(ctx, userID)
}

func updateUserColumns(ctx context.Context, tx *sql.Tx, userID string, upd models.ProfileUpdate) error {
	var sets []string
	var args []interface{}
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", upd.Name)
	add("image", upd.Image)
	add("location", upd.Location)

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *Repository) invalidateProfile(ctx context.Context, userIDs ...string) {
	if r.redis == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = profileCacheKey(id)
	}
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("profile cache invalidation failed", map[string]interface{}{"userIds": userIDs, "error": err})
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
