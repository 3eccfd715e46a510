// internal/workers/data-access/query-postgresql/queries/social.go
package queries

import (
	"context"
	"fmt"

	"mealmatch-workers/internal/repository"
)

func UserMatches(ctx context.Context, store Store, params map[string]interface{}) (interface{}, int, error) {
	userID, err := stringParam(params, "userId")
	if err != nil {
		return nil, 0, err
	}

	matches, err := store.GetMatches(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return matches, len(matches), nil
}

// Conversation lists messages between userId and otherUserId. The other user
// must exist.
func Conversation(ctx context.Context, store Store, params map[string]interface{}) (interface{}, int, error) {
	userID, err := stringParam(params, "userId")
	if err != nil {
		return nil, 0, err
	}
	otherID, err := stringParam(params, "otherUserId")
	if err != nil {
		return nil, 0, err
	}

	exists, err := store.UserExists(ctx, otherID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, fmt.Errorf("%w: %s", repository.ErrUserNotFound, otherID)
	}

	messages, err := store.GetConversation(ctx, userID, otherID)
	if err != nil {
		return nil, 0, err
	}
	return messages, len(messages), nil
}
