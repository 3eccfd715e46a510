package querypostgresql

import "time"

type Config struct {
	Timeout time.Duration
	// Queries slower than this are logged at warn level.
	SlowQueryThreshold time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            10 * time.Second,
		SlowQueryThreshold: 500 * time.Millisecond,
	}
}
