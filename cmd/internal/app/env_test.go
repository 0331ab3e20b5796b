package app

import (
	"testing"
	"time"
)

func TestEnvString(t *testing.T) {
	t.Setenv("OPSBOARD_TEST_STR", "value")
	if got := EnvString("OPSBOARD_TEST_STR", "def"); got != "value" {
		t.Fatalf("got %q", got)
	}
	if got := EnvString("OPSBOARD_TEST_STR_MISSING", "def"); got != "def" {
		t.Fatalf("got %q", got)
	}
}

func TestEnvBool(t *testing.T) {
	cases := map[string]bool{"true": true, "1": true, "false": false, "0": false}
	for raw, want := range cases {
		t.Setenv("OPSBOARD_TEST_BOOL", raw)
		if got := EnvBool("OPSBOARD_TEST_BOOL", !want); got != want {
			t.Fatalf("EnvBool(%q) = %v", raw, got)
		}
	}

	t.Setenv("OPSBOARD_TEST_BOOL", "junk")
	if got := EnvBool("OPSBOARD_TEST_BOOL", true); got != true {
		t.Fatal("invalid bool did not fall back to default")
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("OPSBOARD_TEST_INT", "42")
	if got := EnvInt("OPSBOARD_TEST_INT", 7); got != 42 {
		t.Fatalf("got %d", got)
	}

	for _, raw := range []string{"junk", "-5", "0"} {
		t.Setenv("OPSBOARD_TEST_INT", raw)
		if got := EnvInt("OPSBOARD_TEST_INT", 7); got != 7 {
			t.Fatalf("EnvInt(%q) = %d, want default", raw, got)
		}
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("OPSBOARD_TEST_DUR", "90s")
	if got := EnvDuration("OPSBOARD_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Fatalf("got %v", got)
	}

	for _, raw := range []string{"junk", "-1s"} {
		t.Setenv("OPSBOARD_TEST_DUR", raw)
		if got := EnvDuration("OPSBOARD_TEST_DUR", time.Minute); got != time.Minute {
			t.Fatalf("EnvDuration(%q) = %v, want default", raw, got)
		}
	}
}

func TestSweepIntervalZeroDisables(t *testing.T) {
	t.Setenv("OPSBOARD_REFRESH_SWEEP_INTERVAL", "0")
	cfg := LoadConfig()
	if cfg.RefreshSweepInterval != 0 {
		t.Fatalf("sweep interval: %v", cfg.RefreshSweepInterval)
	}

	t.Setenv("OPSBOARD_REFRESH_SWEEP_INTERVAL", "30m")
	cfg = LoadConfig()
	if cfg.RefreshSweepInterval != 30*time.Minute {
		t.Fatalf("sweep interval: %v", cfg.RefreshSweepInterval)
	}
}
