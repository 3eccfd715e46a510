// internal/workers/matching/calculate-compatibility-score/models.go
package calculatecompatibilityscore

import (
	"mealmatch-workers/internal/compatibility"
	"mealmatch-workers/internal/models"
)

// Input names the pair by id. Profiles supplied inline skip the lookup.
type Input struct {
	CurrentUserID string              `json:"currentUserId"`
	OtherUserID   string              `json:"otherUserId"`
	CurrentUser   *models.UserProfile `json:"currentUser,omitempty"`
	OtherUser     *models.UserProfile `json:"otherUser,omitempty"`
}

type Output struct {
	CompatibilityScore int                          `json:"compatibilityScore"`
	GoalCompletion     compatibility.GoalCompletion `json:"goalCompletion"`
}
