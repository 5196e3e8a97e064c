package auth

import (
	"os"
	"time"
)

// Config holds session token configuration
type Config struct {
	Issuer          string
	Secret          string
	TTL             time.Duration
	PermissionsFile string
}

var (
	DefaultIssuer          = "clinic-gateway"
	DefaultTTL             = 12 * time.Hour
	DefaultPermissionsFile = "config/permissions.yml"
)

// LoadConfig reads config from env with sensible defaults.
// You can override with SESSION_ISSUER, SESSION_SECRET, SESSION_TTL and PERMISSIONS_FILE.
func LoadConfig() Config {
	issuer := os.Getenv("SESSION_ISSUER")
	if issuer == "" {
		issuer = DefaultIssuer
	}
	ttl := DefaultTTL
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			ttl = d
		}
	}
	perms := os.Getenv("PERMISSIONS_FILE")
	if perms == "" {
		perms = DefaultPermissionsFile
	}
	return Config{
		Issuer:          issuer,
		Secret:          os.Getenv("SESSION_SECRET"),
		TTL:             ttl,
		PermissionsFile: perms,
	}
}
