// internal/workers/recipe/generate-recipes/config.go
package generaterecipes

import "time"

type Config struct {
	Timeout time.Duration
	// Temperature of the creative call; the structuring call always runs cold.
	Temperature float64
	MaxTokens   int
	Index       string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     90 * time.Second,
		Temperature: 0.7,
		MaxTokens:   1000,
		Index:       "recipes",
	}
}
