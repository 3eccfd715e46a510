// internal/workers/recipe/manage-favorites/config.go
package managefavorites

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
