// internal/workers/data-access/query-elasticsearch/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"mealmatch-workers/internal/models"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
	ErrMissingUserID    = errors.New("userId is required for user_recipes")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ElasticsearchQuery struct {
	Index     string
	QueryType string
	Keywords  string
	Cuisine   string
	UserID    string
	From      int
	Size      int
}

// normalizePage clamps pagination the same way for every query type.
func (eq *ElasticsearchQuery) normalizePage() {
	if eq.From < 0 {
		eq.From = 0
	}
	if eq.Size < 1 {
		eq.Size = defaultPageSize
	}
	if eq.Size > maxPageSize {
		eq.Size = maxPageSize
	}
}

func BuildQuery(eq ElasticsearchQuery) (*esapi.SearchRequest, error) {
	if eq.Index == "" {
		return nil, ErrMissingIndex
	}
	eq.normalizePage()

	var queryBody map[string]interface{}

	switch eq.QueryType {
	case models.SearchTypeRecipeSearch:
		queryBody = buildRecipeSearchQuery(eq)
	case models.SearchTypeUserRecipes:
		if eq.UserID == "" {
			return nil, ErrMissingUserID
		}
		queryBody = buildUserRecipesQuery(eq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, eq.QueryType)
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{eq.Index},
		Body:  strings.NewReader(string(body)),
		From:  &eq.From,
		Size:  &eq.Size,
	}
	return &req, nil
}

func buildRecipeSearchQuery(eq ElasticsearchQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if eq.Keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  eq.Keywords,
				"fields": []string{"title^3", "description", "cuisine^2"},
				"type":   "best_fields",
			},
		})
	}

	if eq.Cuisine != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"cuisine": eq.Cuisine},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
	}
}

// buildUserRecipesQuery lists every recipe generated for a pair that
// includes the user, newest first.
func buildUserRecipesQuery(eq ElasticsearchQuery) map[string]interface{} {
	filterClauses := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"userIds": eq.UserID}},
	}
	if eq.Cuisine != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"cuisine": eq.Cuisine},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}},
		},
	}
}
