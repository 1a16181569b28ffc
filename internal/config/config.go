package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	StageDev  = "dev"
	StageProd = "prod"
)

const (
	defaultPort          = 8000
	defaultLogLevel      = "info"
	defaultOpponentDelay = time.Millisecond * 1000
	defaultMigrationDir  = "file://db/migration"
)

type Config struct {
	Stage         string
	Port          int
	DatabaseUrl   string
	LogLevel      zerolog.Level
	OpponentDelay time.Duration
	MigrationDir  string
}

// AnalyticsEnabled reports whether a database was configured.
func (c Config) AnalyticsEnabled() bool {
	return c.DatabaseUrl != ""
}

// Load reads the server configuration from the environment. Outside of
// prod a .env file in envFile is loaded first when it exists.
func Load(envFile string) (Config, error) {
	if os.Getenv("STAGE") != StageProd {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := Config{
		Stage:        os.Getenv("STAGE"),
		DatabaseUrl:  os.Getenv("DATABASE_URL"),
		MigrationDir: getEnvOr("MIGRATION_DIR", defaultMigrationDir),
	}
	if cfg.Stage != StageDev && cfg.Stage != StageProd {
		return Config{}, fmt.Errorf("stage must be either %s or %s, got: %q", StageDev, StageProd, cfg.Stage)
	}

	port, err := strconv.Atoi(getEnvOr("PORT", strconv.Itoa(defaultPort)))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT: %q", os.Getenv("PORT"))
	}
	cfg.Port = port

	level, err := zerolog.ParseLevel(getEnvOr("LOG_LEVEL", defaultLogLevel))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.OpponentDelay = defaultOpponentDelay
	if raw := os.Getenv("OPPONENT_TURN_DELAY_MS"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			return Config{}, fmt.Errorf("invalid OPPONENT_TURN_DELAY_MS: %q", raw)
		}
		cfg.OpponentDelay = time.Duration(ms) * time.Millisecond
	}

	return cfg, nil
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
