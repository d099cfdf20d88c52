// Package config loads ledger settings from defaults, an optional YAML file,
// a .env file and LEDGER_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/anthurium-ai/personal-finance/internal/db"
	"github.com/anthurium-ai/personal-finance/internal/logging"
	"github.com/anthurium-ai/personal-finance/internal/suggest"
)

// EnvPrefix prefixes every environment override, e.g. LEDGER_SERVER_ADDR.
const EnvPrefix = "LEDGER"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SuggestConfig tunes the category suggester. Rules, when set, replaces the
// built-in keyword table in the given order.
type SuggestConfig struct {
	Limit         int                 `mapstructure:"limit"`
	WarmThreshold int                 `mapstructure:"warm_threshold"`
	HistoryLimit  int                 `mapstructure:"history_limit"`
	IndexCache    bool                `mapstructure:"index_cache"`
	Rules         []suggest.RuleEntry `mapstructure:"rules"`
}

// New returns a viper instance with defaults and environment binding set up.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.addr", ":8787")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", db.DefaultPath())
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 168*time.Hour)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("suggest.limit", suggest.DefaultLimit)
	v.SetDefault("suggest.warm_threshold", suggest.DefaultWarmThreshold)
	v.SetDefault("suggest.history_limit", 5000)
	v.SetDefault("suggest.index_cache", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env, then file (or ./ledger.yaml when file is empty and it
// exists), and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" {
		return errors.New("config: database.url is required for postgres")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Suggest.Limit <= 0 {
		return fmt.Errorf("config: suggest.limit must be positive, got %d", c.Suggest.Limit)
	}
	if c.Suggest.WarmThreshold <= 0 {
		return fmt.Errorf("config: suggest.warm_threshold must be positive, got %d", c.Suggest.WarmThreshold)
	}
	if c.Suggest.HistoryLimit < 0 {
		return fmt.Errorf("config: suggest.history_limit must not be negative, got %d", c.Suggest.HistoryLimit)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("config: server.request_timeout must be positive")
	}
	return nil
}

// RuleTable builds the configured keyword table, or the default one.
func (s SuggestConfig) RuleTable() *suggest.RuleTable {
	if len(s.Rules) == 0 {
		return suggest.NewRuleTable(suggest.DefaultRules)
	}
	return suggest.NewRuleTable(s.Rules)
}

// Options returns the suggester policy values.
func (s SuggestConfig) Options() suggest.Options {
	return suggest.Options{Limit: s.Limit, WarmThreshold: s.WarmThreshold}
}
