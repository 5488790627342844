package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/trustfreeze/backend/internal/ledger"
)

// ConfigPathEnv names the optional YAML file read before the environment.
const ConfigPathEnv = "FREEZE_CONFIG_PATH"

// maxHolderPageSize is the largest page Horizon serves.
const maxHolderPageSize = 200

// Config captures runtime configuration sourced from a YAML file and environment variables.
type Config struct {
	Environment string         `yaml:"env" env:"FREEZE_ENV" env-default:"development"`
	HTTPPort    string         `yaml:"http_port" env:"FREEZE_HTTP_PORT" env-default:"8080"`
	Database    DatabaseConfig `yaml:"database"`
	Ledger      LedgerConfig   `yaml:"ledger"`
	Log         LogConfig      `yaml:"log"`
	Kafka       KafkaConfig    `yaml:"kafka"`
	Auth        AuthConfig     `yaml:"auth"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" env:"FREEZE_DB_DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"FREEZE_DB_DSN" env-default:"data/freeze.db"`
}

type LedgerConfig struct {
	HorizonURL        string        `yaml:"horizon_url" env:"FREEZE_HORIZON_URL" env-default:"https://horizon-testnet.stellar.org"`
	NetworkPassphrase string        `yaml:"network_passphrase" env:"FREEZE_NETWORK_PASSPHRASE" env-default:"Test SDF Network ; September 2015"`
	BaseFee           int64         `yaml:"base_fee" env:"FREEZE_BASE_FEE" env-default:"200"`
	TxTimeout         time.Duration `yaml:"tx_timeout" env:"FREEZE_TX_TIMEOUT" env-default:"3m"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"FREEZE_REQUEST_TIMEOUT" env-default:"30s"`
	HolderPageSize    int           `yaml:"holder_page_size" env:"FREEZE_HOLDER_PAGE_SIZE" env-default:"200"`
}

type LogConfig struct {
	Debug      bool   `yaml:"debug" env:"FREEZE_LOG_DEBUG" env-default:"false"`
	Dir        string `yaml:"dir" env:"FREEZE_LOG_DIR" env-default:"data/logs"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"FREEZE_LOG_MAX_SIZE_MB" env-default:"10"`
	MaxBackups int    `yaml:"max_backups" env:"FREEZE_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"FREEZE_LOG_MAX_AGE_DAYS" env-default:"28"`
}

type KafkaConfig struct {
	// Events are published only when at least one broker is set.
	Brokers []string `yaml:"brokers" env:"FREEZE_KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"FREEZE_KAFKA_TOPIC" env-default:"freeze-events"`
}

type AuthConfig struct {
	// An empty secret disables authentication on the freeze API.
	JWTSecret string `yaml:"jwt_secret" env:"FREEZE_JWT_SECRET"`
}

// Load reads the optional config file and env vars, falling back to defaults
// so the server can boot with zero configuration.
func Load() (Config, error) {
	var cfg Config
	if path := os.Getenv(ConfigPathEnv); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure data directory: %w", err)
		}
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	// Batches are cut per page, so a page smaller than a batch would split
	// full batches in two.
	if c.Ledger.HolderPageSize < ledger.MaxOperationsPerTx || c.Ledger.HolderPageSize > maxHolderPageSize {
		return fmt.Errorf("holder page size must be within %d..%d, got %d",
			ledger.MaxOperationsPerTx, maxHolderPageSize, c.Ledger.HolderPageSize)
	}
	return nil
}
