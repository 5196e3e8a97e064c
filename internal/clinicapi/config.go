package clinicapi

import (
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:5000/api"
	defaultTimeout = 15 * time.Second
)

// Config points the client at the clinic backend.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// LoadConfig reads CLINIC_API_BASE_URL, CLINIC_API_KEY and CLINIC_API_TIMEOUT.
func LoadConfig() Config {
	cfg := Config{
		BaseURL: strings.TrimSuffix(getEnv("CLINIC_API_BASE_URL", defaultBaseURL), "/"),
		APIKey:  os.Getenv("CLINIC_API_KEY"),
		Timeout: defaultTimeout,
	}
	if raw := os.Getenv("CLINIC_API_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
