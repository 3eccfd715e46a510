// internal/workers/data-access/query-elasticsearch/config.go
package queryelasticsearch

import "time"

type Config struct {
	// DefaultIndex is searched when the job does not name an index.
	DefaultIndex string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		DefaultIndex: "recipes",
		Timeout:      15 * time.Second,
	}
}
