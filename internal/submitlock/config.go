package submitlock

import (
	"os"
	"time"
)

const DefaultTTL = 30 * time.Second

type Config struct {
	RedisURL string
	TTL      time.Duration
}

// LoadConfig reads REDIS_URL and SUBMIT_LOCK_TTL. An empty RedisURL disables
// the lock.
func LoadConfig() Config {
	cfg := Config{RedisURL: os.Getenv("REDIS_URL"), TTL: DefaultTTL}
	if raw := os.Getenv("SUBMIT_LOCK_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.TTL = d
		}
	}
	return cfg
}
