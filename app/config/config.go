package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const Prefix = "POINTING_"

const (
	ArchiveNone    = "none"
	ArchiveRedis   = "redis"
	ArchiveRethink = "rethink"
)

type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":3000"`
	Dev       bool   `env:"DEV" envDefault:"false"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	InboxSize int    `env:"INBOX_SIZE" envDefault:"256"`

	Archive    string        `env:"ARCHIVE" envDefault:"none"`
	DBHost     string        `env:"DB_HOST" envDefault:"localhost:6379"`
	DBAuth     string        `env:"DB_AUTH"`
	DBHosts    []string      `env:"DB_HOSTS" envDefault:"localhost:28015" envSeparator:","`
	HistoryTTL time.Duration `env:"HISTORY_TTL" envDefault:"24h"`

	BrokerHost string `env:"BROKER_HOST"`
	BrokerUser string `env:"BROKER_USER"`
	BrokerPass string `env:"BROKER_PASS"`
}

// Load reads an optional env file, then the POINTING_* environment.
// An explicit path must exist; the default .env may be missing.
func Load(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Archive = strings.ToLower(strings.TrimSpace(cfg.Archive))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// BrokerEnabled reports whether the STOMP transport should start.
func (c Config) BrokerEnabled() bool {
	return c.BrokerHost != ""
}

func (c Config) validate() error {
	switch c.Archive {
	case ArchiveNone, ArchiveRedis, ArchiveRethink:
	default:
		return fmt.Errorf("unknown archive %q", c.Archive)
	}
	if c.InboxSize <= 0 {
		return fmt.Errorf("inbox size must be positive, got %d", c.InboxSize)
	}
	return nil
}
