// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	HTTPAddress          string        `mapstructure:"HTTP_ADDRESS"`
	DBURL                string        `mapstructure:"DB_URL"`
	GithubAPIURL         string        `mapstructure:"GITHUB_API_URL"`
	CronSecret           string        `mapstructure:"CRON_SECRET"`
	SessionSigningSecret string        `mapstructure:"SESSION_SIGNING_SECRET"`
	SessionCookieName    string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionIssuer        string        `mapstructure:"SESSION_ISSUER"`
	SweepInterval        time.Duration `mapstructure:"SWEEP_INTERVAL"`
	ManualRunTimeout     time.Duration `mapstructure:"MANUAL_RUN_TIMEOUT"`
}

// LoadConfig reads configuration from file and/or environment variables.
// configFile overrides the default .env lookup when set.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	v.SetDefault("SESSION_COOKIE_NAME", "session")
	v.SetDefault("SESSION_ISSUER", "starsync-auth")
	v.SetDefault("SWEEP_INTERVAL", "0s")
	v.SetDefault("MANUAL_RUN_TIMEOUT", "60s")
	// Registered so AutomaticEnv picks them up on Unmarshal.
	v.SetDefault("DB_URL", "")
	v.SetDefault("CRON_SECRET", "")
	v.SetDefault("SESSION_SIGNING_SECRET", "")

	// Load from .env file if it exists
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName(".env")
		v.SetConfigType("env")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // Ignore error if file not found
	}

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.SessionSigningSecret == "" {
		return nil, errors.New("SESSION_SIGNING_SECRET is a required configuration field")
	}
	if cfg.SweepInterval < 0 {
		return nil, errors.New("SWEEP_INTERVAL must not be negative")
	}
	if cfg.ManualRunTimeout <= 0 {
		return nil, errors.New("MANUAL_RUN_TIMEOUT must be positive")
	}

	return &cfg, nil
}
