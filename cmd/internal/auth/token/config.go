package token

import (
	"os"
	"strings"
	"time"
)

// Fixed development fallbacks. Tolerated so a bare checkout runs, but the
// manager logs an unsafe-for-production warning whenever they are in use.
const (
	devAccessSecret  = "opsboard-dev-secret"
	devRefreshSecret = "opsboard-dev-refresh-secret"
)

// Config defines the signing configuration for access and refresh tokens.
//
// Access and refresh tokens are signed with DISTINCT secrets so a leaked
// refresh secret cannot mint access tokens and vice versa.
type Config struct {
	// Issuer is the value set in the "iss" claim.
	Issuer string

	// AccessTTL is the lifetime of access tokens (hours-scale).
	AccessTTL time.Duration

	// RefreshTTL is the lifetime of refresh tokens (days-scale).
	RefreshTTL time.Duration

	AccessSecret  string
	RefreshSecret string

	// FallbackSecrets is true when either secret came from the built-in
	// development fallback rather than the environment.
	FallbackSecrets bool
}

// DefaultConfig returns the development defaults.
// Production deployments must override the secrets via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:          "opsboard",
		AccessTTL:       12 * time.Hour,
		RefreshTTL:      14 * 24 * time.Hour,
		AccessSecret:    devAccessSecret,
		RefreshSecret:   devRefreshSecret,
		FallbackSecrets: true,
	}
}

// LoadConfigFromEnv loads token configuration from environment variables.
//
// Optional:
//   - OPSBOARD_JWT_SECRET
//   - OPSBOARD_JWT_REFRESH_SECRET
//   - OPSBOARD_JWT_ISSUER
//   - OPSBOARD_JWT_ACCESS_TTL  (Go duration, > 0)
//   - OPSBOARD_JWT_REFRESH_TTL (Go duration, > 0)
//
// Missing secrets fall back to fixed development values and mark the config
// so the manager can warn. Identical access/refresh secrets are rejected.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("OPSBOARD_JWT_ISSUER")); v != "" {
		cfg.Issuer = v
	}

	if v := strings.TrimSpace(os.Getenv("OPSBOARD_JWT_ACCESS_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTTL = d
	}

	if v := strings.TrimSpace(os.Getenv("OPSBOARD_JWT_REFRESH_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTTL = d
	}

	access := strings.TrimSpace(os.Getenv("OPSBOARD_JWT_SECRET"))
	refresh := strings.TrimSpace(os.Getenv("OPSBOARD_JWT_REFRESH_SECRET"))

	cfg.FallbackSecrets = access == "" || refresh == ""
	if access != "" {
		cfg.AccessSecret = access
	}
	if refresh != "" {
		cfg.RefreshSecret = refresh
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
