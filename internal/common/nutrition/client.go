// Package nutrition talks to the CalorieNinjas nutrition API and wraps it with
// rate limiting, a circuit breaker and a redis cache.
package nutrition

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apphttp "mealmatch-workers/internal/common/http"
	"mealmatch-workers/internal/models"
)

// Lookuper is implemented by every layer in this package.
type Lookuper interface {
	Lookup(ctx context.Context, query string) ([]models.NutritionItem, error)
}

type Client struct {
	http    *apphttp.Client
	baseURL string
	apiKey  string
}

type nutritionResponse struct {
	Items []models.NutritionItem `json:"items"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:    apphttp.NewClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Lookup sends the ingredient list as one query. An empty query returns no
// items without calling the API.
func (c *Client) Lookup(ctx context.Context, query string) ([]models.NutritionItem, error) {
	if strings.TrimSpace(query) == "" {
		return []models.NutritionItem{}, nil
	}

	endpoint := fmt.Sprintf("%s/v1/nutrition?query=%s", c.baseURL, url.QueryEscape(query))

	var resp nutritionResponse
	err := c.http.DoJSON(ctx, http.MethodGet, endpoint, map[string]string{"X-Api-Key": c.apiKey}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("nutrition lookup: %w", err)
	}
	if resp.Items == nil {
		resp.Items = []models.NutritionItem{}
	}
	return resp.Items, nil
}
