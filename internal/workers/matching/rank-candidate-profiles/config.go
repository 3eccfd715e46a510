// internal/workers/matching/rank-candidate-profiles/config.go
package rankcandidateprofiles

import "time"

type Config struct {
	// MaxItems caps the ranked list. Zero keeps every candidate.
	MaxItems         int
	Timeout          time.Duration
	LatencyThreshold time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          60 * time.Second,
		LatencyThreshold: 5 * time.Second,
	}
}
