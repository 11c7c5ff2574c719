// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPAddr          string        `mapstructure:"HTTP_ADDR"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	LogFormat         string        `mapstructure:"LOG_FORMAT"`
	GithubAPIURL      string        `mapstructure:"GITHUB_API_URL"`
	GithubToken       string        `mapstructure:"GITHUB_TOKEN" masq:"secret"`
	BranchConcurrency int           `mapstructure:"BRANCH_CONCURRENCY"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout   time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	SentryDSN         string        `mapstructure:"SENTRY_DSN" masq:"secret"`
	SentryEnv         string        `mapstructure:"SENTRY_ENV"`
}

// keys lists every setting so that viper resolves it from the environment on Unmarshal.
var keys = []string{
	"HTTP_ADDR",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"GITHUB_API_URL",
	"GITHUB_TOKEN",
	"BRANCH_CONCURRENCY",
	"REQUEST_TIMEOUT",
	"SHUTDOWN_TIMEOUT",
	"SENTRY_DSN",
	"SENTRY_ENV",
}

// LoadConfig reads configuration from command line flags, environment variables
// and an optional .env file, in that order of precedence.
func LoadConfig(args []string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	v.SetDefault("BRANCH_CONCURRENCY", 4)
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	fs := pflag.NewFlagSet("github-repo-proxy", pflag.ContinueOnError)
	fs.String("addr", "", "HTTP listen address")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (json, text)")
	fs.String("github-api-url", "", "GitHub REST API base URL")
	fs.Int("branch-concurrency", 0, "maximum concurrent branch listings per request")
	fs.Duration("request-timeout", 0, "per-request timeout")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flagKeys := map[string]string{
		"addr":               "HTTP_ADDR",
		"log-level":          "LOG_LEVEL",
		"log-format":         "LOG_FORMAT",
		"github-api-url":     "GITHUB_API_URL",
		"branch-concurrency": "BRANCH_CONCURRENCY",
		"request-timeout":    "REQUEST_TIMEOUT",
	}
	for name, key := range flagKeys {
		// Bound flags only win over other sources once they have been set explicitly.
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, err
		}
	}

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GithubToken == "" {
		return errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if c.BranchConcurrency < 1 {
		return errors.New("BRANCH_CONCURRENCY must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	u, err := url.Parse(c.GithubAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GITHUB_API_URL must be an absolute URL, got %q", c.GithubAPIURL)
	}
	return nil
}
