// internal/workers/matching/rank-candidate-profiles/models.go
package rankcandidateprofiles

import (
	"mealmatch-workers/internal/compatibility"
	"mealmatch-workers/internal/models"
)

type Input struct {
	UserID      string               `json:"userId"`
	CurrentUser *models.UserProfile  `json:"currentUser,omitempty"`
	Candidates  []models.UserProfile `json:"candidates,omitempty"`
	MaxItems    int                  `json:"maxItems,omitempty"`
}

type Output struct {
	Users []compatibility.RankedProfile `json:"users"`
	Total int                           `json:"total"`
}
