package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mealmatch-workers/internal/common/database"
	"mealmatch-workers/internal/models"
)

// RecordLike stores userID liking likedUserID. created is false when the like
// already existed.
func (r *Repository) RecordLike(ctx context.Context, userID, likedUserID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO likes (user_id, liked_user_id, created_at) VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, liked_user_id) DO NOTHING`, userID, likedUserID)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) RecordDislike(ctx context.Context, userID, dislikedUserID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO dislikes (user_id, disliked_user_id, created_at) VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, disliked_user_id) DO NOTHING`, userID, dislikedUserID)
	if err != nil {
		return false, fmt.Errorf("insert dislike: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) HasLiked(ctx context.Context, userID, otherUserID string) (bool, error) {
	var liked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND liked_user_id = $2)`,
		userID, otherUserID).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

// CreateMatch links both users to each other atomically.
func (r *Repository) CreateMatch(ctx context.Context, userA, userB string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, pair := range [][2]string{{userA, userB}, {userB, userA}} {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO matches (user_id, matched_user_id, created_at) VALUES ($1, $2, NOW())
				ON CONFLICT (user_id, matched_user_id) DO NOTHING`, pair[0], pair[1]); err != nil {
				return fmt.Errorf("insert match %s -> %s: %w", pair[0], pair[1], err)
			}
		}
		return nil
	})
}

// GetMatches lists the users matched with userID, newest match first.
func (r *Repository) GetMatches(ctx context.Context, userID string) ([]models.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, COALESCE(u.image, '')
		FROM matches m
		JOIN users u ON u.id = m.matched_user_id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC, u.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	matches := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Image); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, s)
	}
	return matches, rows.Err()
}
