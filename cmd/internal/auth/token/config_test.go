package token

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("OPSBOARD_JWT_SECRET", "")
	t.Setenv("OPSBOARD_JWT_REFRESH_SECRET", "")
	t.Setenv("OPSBOARD_JWT_ACCESS_TTL", "")
	t.Setenv("OPSBOARD_JWT_REFRESH_TTL", "")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}

	if !cfg.FallbackSecrets {
		t.Fatal("expected fallback secrets when env is empty")
	}
	if cfg.AccessTTL != 12*time.Hour {
		t.Fatalf("access ttl: got %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 14*24*time.Hour {
		t.Fatalf("refresh ttl: got %v", cfg.RefreshTTL)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		t.Fatal("fallback secrets must differ")
	}
}

func TestLoadConfigFromEnvExplicitSecrets(t *testing.T) {
	t.Setenv("OPSBOARD_JWT_SECRET", "s1")
	t.Setenv("OPSBOARD_JWT_REFRESH_SECRET", "s2")
	t.Setenv("OPSBOARD_JWT_ACCESS_TTL", "30m")
	t.Setenv("OPSBOARD_JWT_REFRESH_TTL", "72h")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}

	if cfg.FallbackSecrets {
		t.Fatal("fallback flag set despite explicit secrets")
	}
	if cfg.AccessSecret != "s1" || cfg.RefreshSecret != "s2" {
		t.Fatalf("secrets not picked up: %+v", cfg)
	}
	if cfg.AccessTTL != 30*time.Minute || cfg.RefreshTTL != 72*time.Hour {
		t.Fatalf("ttls not picked up: %+v", cfg)
	}
}

func TestLoadConfigFromEnvRejectsEqualSecrets(t *testing.T) {
	t.Setenv("OPSBOARD_JWT_SECRET", "same")
	t.Setenv("OPSBOARD_JWT_REFRESH_SECRET", "same")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("want ErrConfig, got %v", err)
	}
}

func TestLoadConfigFromEnvRejectsBadTTL(t *testing.T) {
	t.Setenv("OPSBOARD_JWT_SECRET", "s1")
	t.Setenv("OPSBOARD_JWT_REFRESH_SECRET", "s2")
	t.Setenv("OPSBOARD_JWT_ACCESS_TTL", "-5m")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("want ErrConfig, got %v", err)
	}
}
