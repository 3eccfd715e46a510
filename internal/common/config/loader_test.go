package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("POSTGRES_HOST", "pg.local")
	t.Setenv("ELASTICSEARCH_URL", "http://es.local:9200")
	t.Setenv("REDIS_ADDRESS", "redis.local:6379")
	t.Setenv("DB_USER", "mealmatch")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("CALORIE_NINJA_API_KEY", "cn-key")
	t.Setenv("GROQ_API_KEY", "groq-key")
}

// ==========================
// LoadFromFile Tests
// ==========================

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "pg.local", cfg.Database.Postgres.Host)
	assert.Equal(t, "mealmatch", cfg.Database.Postgres.User)
	assert.Equal(t, "secret", cfg.Database.Postgres.Password)
	assert.Equal(t, []string{"http://es.local:9200"}, cfg.Database.Elasticsearch.Addresses)
	assert.Equal(t, "http://es.local:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, "redis.local:6379", cfg.Database.Redis.Address)
	assert.Equal(t, "cn-key", cfg.Nutrition.APIKey)
	assert.Equal(t, "groq-key", cfg.APIs.GenAI.APIKey)

	assert.Equal(t, 4, cfg.Nutrition.MaxConcurrentLookups)
	assert.Equal(t, 5*time.Second, cfg.Nutrition.LookupTimeout())
	assert.Len(t, cfg.Workers, 10)

	gen := GetWorkerConfig(cfg, "generate-recipes")
	assert.Equal(t, 90000, gen.Timeout)
	assert.Equal(t, 2, gen.MaxRetries)
	assert.Equal(t, 3, GetWorkerConfig(cfg, "record-swipe").MaxRetries)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	setRequiredEnv(t)
	path := writeConfig(t, `
camunda:
  broker_address: ${ZEEBE_ADDRESS}
database:
  postgres:
    host: ${POSTGRES_HOST}
    database: mealmatch
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
workers:
  send-message:
    enabled: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "mealmatch-workers", cfg.App.Name)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.Addresses)
	assert.Equal(t, "recipes", cfg.Database.Elasticsearch.RecipeIndex)
	assert.Equal(t, "https://api.calorieninjas.com", cfg.Nutrition.BaseURL)
	assert.Equal(t, 0.6, cfg.Nutrition.Breaker.FailureRatio)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.APIs.GenAI.Model)
	assert.Equal(t, "mealmatch", cfg.Notifications.Realtime.ChannelPrefix)
	assert.Equal(t, "configs/activity-registry.json", cfg.Registry.Path)

	assert.False(t, IsWorkerEnabled(cfg, "send-message"))
	assert.True(t, IsWorkerEnabled(cfg, "record-swipe"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "send-message").MaxJobsActive)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	setRequiredEnv(t)

	tests := []struct {
		name string
		yaml string
	}{
		{"missing broker", `
database:
  postgres: {host: pg, database: mm}
  elasticsearch: {url: http://es:9200}
  redis: {address: r:6379}
`},
		{"missing redis", `
camunda: {broker_address: z:26500}
database:
  postgres: {host: pg, database: mm}
  elasticsearch: {url: http://es:9200}
`},
		{"bad failure ratio", `
camunda: {broker_address: z:26500}
database:
  postgres: {host: pg, database: mm}
  elasticsearch: {url: http://es:9200}
  redis: {address: r:6379}
nutrition:
  breaker: {failure_ratio: 1.5}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
