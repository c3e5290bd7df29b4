package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all expense tracker configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Budgets  BudgetsConfig  `mapstructure:"budgets"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or memory
	Path   string `mapstructure:"path"`
}

// ServerConfig defines HTTP API settings.
type ServerConfig struct {
	Listen         string        `mapstructure:"listen"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ReportsConfig defines how report windows are computed.
type ReportsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured IANA timezone.
func (r ReportsConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// BudgetsConfig defines scheduled budget checks.
type BudgetsConfig struct {
	CheckSchedule string        `mapstructure:"check_schedule"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`
}

// AlertsConfig defines alerting integrations.
type AlertsConfig struct {
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultsConfig defines default values.
type DefaultsConfig struct {
	Owner string `mapstructure:"owner"`
}

// Load reads configuration from file and environment variables. A .env file
// in the working directory is loaded first; it never overrides variables
// that are already set.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".expt"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.path", filepath.Join(home, ".expt", "expenses.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("reports.timezone", "UTC")
	v.SetDefault("budgets.check_schedule", "@hourly")
	v.SetDefault("budgets.check_timeout", "1m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("defaults.owner", "default")
	v.SetDefault("alerts.slack.channel", "#expenses")

	// Environment variables
	v.SetEnvPrefix("EXPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("invalid storage.driver %q (expected sqlite or memory)", c.Storage.Driver)
	}
	if _, err := c.Reports.Location(); err != nil {
		return err
	}
	return nil
}
