// internal/workers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealmatch-workers/internal/models"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// Store is the read side of the repository the queries run against.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	GetMatches(ctx context.Context, userID string) ([]models.UserSummary, error)
	GetConversation(ctx context.Context, userA, userB string) ([]models.Message, error)
	CandidatePool(ctx context.Context, userID string) ([]models.UserProfile, error)
}

// QueryFunc returns: data, rowCount, error
type QueryFunc func(ctx context.Context, store Store, params map[string]interface{}) (interface{}, int, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeUserProfile:   UserProfile,
	models.QueryTypeUserMatches:   UserMatches,
	models.QueryTypeConversation:  Conversation,
	models.QueryTypeCandidatePool: CandidatePool,
}

// Execute runs the named query and reports its execution time in milliseconds.
func Execute(ctx context.Context, store Store, queryType models.QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}

	start := time.Now()
	data, rows, err := fn(ctx, store, params)
	return data, rows, time.Since(start).Milliseconds(), err
}

func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return v, nil
}
