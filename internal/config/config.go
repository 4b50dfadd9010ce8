package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvironment   = "development"
	defaultBackendRoot   = "http://localhost:8080"
	defaultInstructorID  = "11111111-1111-1111-1111-111111111111"
	defaultSlotDuration  = 45 * time.Minute
	defaultCancelCutoff  = 12 * time.Hour
	defaultNoticeTTL     = 6 * time.Second
	defaultHTTPTimeout   = 10 * time.Second
	defaultIdleTimeout   = 2 * time.Hour
	defaultMigrationsDir = "migrations"
)

type Config struct {
	TelegramToken string
	DBDSN         string
	Environment   string

	BackendRoot         string
	DefaultInstructorID string
	SlotDuration        time.Duration
	CancelCutoff        time.Duration
	NoticeTTL           time.Duration
	HTTPTimeout         time.Duration
	ShiftAfterFriday    bool
	// IdleTimeout is how long an unused schedule stays in memory.
	IdleTimeout   time.Duration
	MigrationsDir string

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

// Load reads .env if present, then the environment.
func Load() (*Config, error) {
	loaded := godotenv.Load(".env") == nil
	return FromEnv(os.Getenv, loaded)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string, envFileLoaded bool) (*Config, error) {
	cfg := &Config{
		TelegramToken:       getenv("TELEGRAM_TOKEN"),
		DBDSN:               getenv("DB_DSN"),
		Environment:         orDefault(getenv("ENV"), defaultEnvironment),
		BackendRoot:         orDefault(getenv("BACKEND_ROOT"), defaultBackendRoot),
		DefaultInstructorID: orDefault(getenv("DEFAULT_INSTRUCTOR_ID"), defaultInstructorID),
		MigrationsDir:       orDefault(getenv("MIGRATIONS_DIR"), defaultMigrationsDir),
		EnvFileLoaded:       envFileLoaded,
	}

	var err error
	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"SLOT_DURATION", defaultSlotDuration, &cfg.SlotDuration},
		{"CANCEL_CUTOFF", defaultCancelCutoff, &cfg.CancelCutoff},
		{"NOTICE_TTL", defaultNoticeTTL, &cfg.NoticeTTL},
		{"HTTP_TIMEOUT", defaultHTTPTimeout, &cfg.HTTPTimeout},
		{"IDLE_TIMEOUT", defaultIdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if *d.dest, err = parseDuration(getenv(d.key), d.def); err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if raw := getenv("SHIFT_AFTER_FRIDAY"); raw != "" {
		if cfg.ShiftAfterFriday, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("SHIFT_AFTER_FRIDAY: %w", err)
		}
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
