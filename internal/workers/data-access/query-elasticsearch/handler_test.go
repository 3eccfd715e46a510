package queryelasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mealmatch-workers/internal/common/errors"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		DefaultIndex: "recipes",
		Timeout:      5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

// fakeES answers every search with status and body and records the last
// request path and body.
type fakeES struct {
	mu       sync.Mutex
	status   int
	body     string
	lastPath string
	lastBody map[string]interface{}
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastPath = r.URL.Path
	raw, _ := io.ReadAll(r.Body)
	f.lastBody = nil
	_ = json.Unmarshal(raw, &f.lastBody)

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

func setupFakeES(t *testing.T, status int, body string) (*fakeES, *elasticsearch.Client) {
	fake := &fakeES{status: status, body: body}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return fake, client
}

const twoHits = `{
  "took": 3,
  "hits": {
    "total": {"value": 2, "relation": "eq"},
    "max_score": 2.5,
    "hits": [
      {"_source": {"recipeId": "set-1-0", "title": "Bibimbap", "cuisine": "Korean"}},
      {"_source": {"recipeId": "set-1-1", "title": "Kimchi Fried Rice", "cuisine": "Korean"}}
    ]
  }
}`

func codeOf(t *testing.T, err error) apperrors.ErrorCode {
	t.Helper()
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	return stdErr.Code
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RecipeSearch(t *testing.T) {
	fake, client := setupFakeES(t, http.StatusOK, twoHits)
	handler := NewHandler(createTestConfig(), client, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: models.SearchTypeRecipeSearch,
		Keywords:  "rice",
		Cuisine:   "Korean",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), output.TotalHits)
	assert.Equal(t, 2.5, output.MaxScore)
	require.Len(t, output.Data, 2)
	assert.Equal(t, "Bibimbap", output.Data[0]["title"])

	assert.Equal(t, "/recipes/_search", fake.lastPath)
	boolQuery := fake.lastBody["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]interface{})
	require.Len(t, filter, 1)
	assert.Equal(t, map[string]interface{}{"term": map[string]interface{}{"cuisine": "Korean"}}, filter[0])
}

func TestHandler_Execute_UserRecipes(t *testing.T) {
	fake, client := setupFakeES(t, http.StatusOK, twoHits)
	handler := NewHandler(createTestConfig(), client, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		IndexName: "recipes-v2",
		QueryType: models.SearchTypeUserRecipes,
		UserID:    "u1",
	})

	require.NoError(t, err)
	assert.Len(t, output.Data, 2)
	assert.True(t, strings.HasPrefix(fake.lastPath, "/recipes-v2/"))
	assert.Contains(t, fake.lastBody, "sort")
}

func TestHandler_Execute_EmptyResult(t *testing.T) {
	_, client := setupFakeES(t, http.StatusOK, `{"hits":{"total":{"value":0},"max_score":null,"hits":[]}}`)
	handler := NewHandler(createTestConfig(), client, createTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{QueryType: models.SearchTypeRecipeSearch})
	require.NoError(t, err)
	assert.NotNil(t, output.Data)
	assert.Empty(t, output.Data)
	assert.Zero(t, output.MaxScore)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		input    *Input
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "unknown query type",
			status:   http.StatusOK,
			body:     twoHits,
			input:    &Input{QueryType: "meal_plans"},
			wantCode: apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:     "user recipes without user",
			status:   http.StatusOK,
			body:     twoHits,
			input:    &Input{QueryType: models.SearchTypeUserRecipes},
			wantCode: apperrors.ErrCodeInputValidationFailed,
		},
		{
			name:     "index missing",
			status:   http.StatusNotFound,
			body:     `{"error":{"type":"index_not_found_exception"},"status":404}`,
			input:    &Input{QueryType: models.SearchTypeRecipeSearch},
			wantCode: apperrors.ErrCodeIndexNotFound,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"error":{"type":"parsing_exception"},"status":400}`,
			input:    &Input{QueryType: models.SearchTypeRecipeSearch},
			wantCode: apperrors.ErrCodeSearchQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := setupFakeES(t, tt.status, tt.body)
			handler := NewHandler(createTestConfig(), client, createTestLogger(t))

			output, err := handler.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			assert.Equal(t, tt.wantCode, codeOf(t, err))
		})
	}
}

func TestHandler_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{addr}, MaxRetries: 1})
	require.NoError(t, err)
	handler := NewHandler(createTestConfig(), client, createTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{QueryType: models.SearchTypeRecipeSearch})
	assert.Equal(t, apperrors.ErrCodeElasticsearchConnectionFailed, codeOf(t, err))
}
