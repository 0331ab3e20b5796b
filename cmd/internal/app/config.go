package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// UploadDir is the root of the static upload tree served under /uploads.
	UploadDir string

	// If true, /readyz returns 503 unless the database is configured and reachable.
	ReadinessRequireDB bool

	// RefreshSweepInterval controls the expired refresh-token sweeper; 0 disables it.
	RefreshSweepInterval time.Duration
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("OPSBOARD_HTTP_ADDR", "0.0.0.0:3000"),
		LogLevel:  EnvString("OPSBOARD_LOG_LEVEL", "info"),
		LogFormat: EnvString("OPSBOARD_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("OPSBOARD_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("OPSBOARD_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("OPSBOARD_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("OPSBOARD_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("OPSBOARD_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("OPSBOARD_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("OPSBOARD_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("OPSBOARD_DB_MIN_CONNS", 0),

		UploadDir: EnvString("OPSBOARD_UPLOAD_DIR", "uploads"),

		ReadinessRequireDB: EnvBool("OPSBOARD_READINESS_REQUIRE_DB", false),

		RefreshSweepInterval: envSweepInterval("OPSBOARD_REFRESH_SWEEP_INTERVAL", time.Hour),
	}
}

// envSweepInterval is like EnvDuration but treats an explicit "0" as disabled.
func envSweepInterval(key string, def time.Duration) time.Duration {
	v := EnvString(key, "")
	if v == "0" {
		return 0
	}
	return EnvDuration(key, def)
}
