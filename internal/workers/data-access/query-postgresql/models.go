// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "mealmatch-workers/internal/models"

type Input struct {
	QueryType   string `json:"queryType"`
	UserID      string `json:"userId,omitempty"`
	OtherUserID string `json:"otherUserId,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeUserProfile   = models.QueryTypeUserProfile
	QueryTypeUserMatches   = models.QueryTypeUserMatches
	QueryTypeConversation  = models.QueryTypeConversation
	QueryTypeCandidatePool = models.QueryTypeCandidatePool
)
