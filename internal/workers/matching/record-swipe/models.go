// internal/workers/matching/record-swipe/models.go
package recordswipe

import "mealmatch-workers/internal/models"

type Input struct {
	UserID       string                `json:"userId"`
	TargetUserID string                `json:"targetUserId"`
	Direction    models.SwipeDirection `json:"direction"`
}

type Output struct {
	Liked       bool                `json:"liked"`
	Disliked    bool                `json:"disliked"`
	Matched     bool                `json:"matched"`
	MatchedUser *models.UserSummary `json:"matchedUser,omitempty"`
}

// InputSchema is used when the activity registry has no schema for this task.
const InputSchema = `{
  "type": "object",
  "required": ["userId", "targetUserId", "direction"],
  "properties": {
    "userId":       {"type": "string", "minLength": 1},
    "targetUserId": {"type": "string", "minLength": 1},
    "direction":    {"type": "string", "enum": ["right", "left"]}
  }
}`
