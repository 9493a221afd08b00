package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/coderunr/editor/internal/language"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Server configuration
	LogLevel         string `mapstructure:"log_level"`
	BindAddress      string `mapstructure:"bind_address"`
	RequestBodyLimit int64  `mapstructure:"request_body_limit"`

	// Execution service
	ExecutionURL     string        `mapstructure:"execution_url"`
	ExecutionTimeout time.Duration `mapstructure:"execution_timeout"`

	// Editor behaviour
	DefaultLanguage      string        `mapstructure:"default_language"`
	NotificationDuration time.Duration `mapstructure:"notification_duration"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// A missing .env is not an error
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	v.SetDefault("log_level", "INFO")
	v.SetDefault("bind_address", getEnvOrDefault("PORT", "2001"))
	v.SetDefault("request_body_limit", 1<<20)
	v.SetDefault("execution_url", "https://emkc.org/api/v2/piston")
	v.SetDefault("execution_timeout", "60s")
	v.SetDefault("default_language", "javascript")
	v.SetDefault("notification_duration", "6s")

	// Set environment variable prefix
	v.SetEnvPrefix("CODERUNR")
	v.AutomaticEnv()

	// Try to read config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/coderunr/")
	v.AddConfigPath("$HOME/.coderunr/")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate validates the configuration
func validate(config *Config) error {
	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	u, err := url.Parse(config.ExecutionURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("execution_url must be an absolute http(s) URL: %q", config.ExecutionURL)
	}

	if config.ExecutionTimeout < 0 {
		return fmt.Errorf("execution_timeout must be non-negative")
	}

	if _, ok := language.Lookup(config.DefaultLanguage); !ok {
		return fmt.Errorf("unsupported default_language: %s", config.DefaultLanguage)
	}

	if err := language.Validate(); err != nil {
		return err
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(env, defaultValue string) string {
	if value := os.Getenv(env); value != "" {
		return "0.0.0.0:" + value
	}
	return "0.0.0.0:" + defaultValue
}

// GetBindAddress returns the complete bind address
func (c *Config) GetBindAddress() string {
	if c.BindAddress == "" {
		return "0.0.0.0:2001"
	}
	return c.BindAddress
}

// GetLogLevel returns the parsed log level
func (c *Config) GetLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger builds the process logger from the configured level
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.GetLogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
