package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	TelegramToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite3"` // sqlite3|postgres
	DBPath      string `envconfig:"DB_PATH" default:"data/reflectbot.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"` // postgres DSN, required when DB_DRIVER=postgres

	Timezone string `envconfig:"TIMEZONE" default:"UTC"` // schedule slots are interpreted in this zone
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DispatcherEnabled   bool          `envconfig:"ENABLE_DISPATCHER" default:"true"`
	DispatchBatchSize   int           `envconfig:"DISPATCH_BATCH_SIZE" default:"50"`
	DispatchUserTimeout time.Duration `envconfig:"DISPATCH_USER_TIMEOUT" default:"15s"`

	ConnectMaxAttempts int           `envconfig:"DB_CONNECT_MAX_ATTEMPTS" default:"10"`
	ConnectBaseDelay   time.Duration `envconfig:"DB_CONNECT_BASE_DELAY" default:"5s"`
	// RunDegraded keeps the bot alive with the dispatcher disabled when the
	// database never comes up at startup.
	RunDegraded bool `envconfig:"RUN_DEGRADED" default:"false"`

	// PromptsImportPath points at an optional .xlsx/.csv file with extra
	// catalog prompts loaded at startup.
	PromptsImportPath string `envconfig:"PROMPTS_IMPORT_PATH"`
}

// Load reads .env (if present) and then the environment into Config.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBDriver == "postgres" && cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
	}
	return cfg, nil
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}
