// internal/workers/data-access/query-postgresql/queries/user.go
package queries

import (
	"context"
)

func UserProfile(ctx context.Context, store Store, params map[string]interface{}) (interface{}, int, error) {
	userID, err := stringParam(params, "userId")
	if err != nil {
		return nil, 0, err
	}

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return profile, 1, nil
}

func CandidatePool(ctx context.Context, store Store, params map[string]interface{}) (interface{}, int, error) {
	userID, err := stringParam(params, "userId")
	if err != nil {
		return nil, 0, err
	}

	pool, err := store.CandidatePool(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return pool, len(pool), nil
}
