// Package config loads the bot configuration from the environment, after
// merging an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken  string        `env:"DISCORD_TOKEN"`
	Prefix        string        `env:"BOT_PREFIX" envDefault:"!"`
	FlagPrefix    string        `env:"FLAG_PREFIX" envDefault:"--"`
	OwnerIDs      []string      `env:"BOT_OWNER_ID" envSeparator:","`
	OpsChannelID  string        `env:"OPS_CHANNEL_ID"`
	StorageDriver string        `env:"STORAGE_DRIVER" envDefault:"json"`
	StoragePath   string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	DefaultLocale string        `env:"DEFAULT_LOCALE" envDefault:"en"`
	MenuTimeout   time.Duration `env:"MENU_TIMEOUT" envDefault:"2m"`
	OpsAddr       string        `env:"OPS_ADDR" envDefault:":8787"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"json"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Load reads files (".env" when none are given) and then the environment.
// Missing files are not an error; variables already set win over files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the bot cannot start without. The token is only
// needed by the Discord binary and is checked there.
func (c *Config) Validate() error {
	var errs []error
	if c.Prefix == "" {
		errs = append(errs, errors.New("BOT_PREFIX must not be empty"))
	}
	if c.FlagPrefix == "" {
		errs = append(errs, errors.New("FLAG_PREFIX must not be empty"))
	}
	switch c.StorageDriver {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q: want json or sqlite", c.StorageDriver))
	}
	if c.MenuTimeout <= 0 {
		errs = append(errs, errors.New("MENU_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
