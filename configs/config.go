package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrMissingBotToken = errors.New("BOT_TOKEN is not set")

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Enabled reports whether every setting needed to archive media is present.
func (r R2) Enabled() bool {
	return r.AccountID != "" && r.AccessKey != "" && r.SecretKey != "" && r.BucketName != "" && r.PublicURL != ""
}

type Database struct {
	Driver      string
	Path        string
	PostgresURI string
}

type Logger struct {
	Level  string
	Format string
	File   string
}

type Config struct {
	BotToken     string
	ChannelID    string
	AdminID      int64
	Database     Database
	HealthPort   string
	PollInterval time.Duration
	SendTimeout  time.Duration
	Logger       Logger
	R2           R2
}

func LoadConfig() (*Config, error) {
	adminID, err := strconv.ParseInt(getEnv("ADMIN_ID", "469085521"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
	}

	pollInterval, err := time.ParseDuration(getEnv("POLL_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}

	sendTimeout, err := time.ParseDuration(getEnv("SEND_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_TIMEOUT: %w", err)
	}

	return &Config{
		BotToken:  getEnv("BOT_TOKEN", ""),
		ChannelID: getEnv("CHANNEL_ID", "@severitynotfound"),
		AdminID:   adminID,
		Database: Database{
			Driver:      getEnv("DATABASE_DRIVER", DriverSQLite),
			Path:        getEnv("DATABASE_PATH", "posts.db"),
			PostgresURI: getEnv("POSTGRES_URI", ""),
		},
		HealthPort:   getEnv("HEALTH_PORT", "8080"),
		PollInterval: pollInterval,
		SendTimeout:  sendTimeout,
		Logger: Logger{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   getEnv("LOG_FILE", ""),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
	}, nil
}

// Validate reports settings the process cannot start without.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return ErrMissingBotToken
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("DATABASE_PATH is empty")
		}
	case DriverPostgres:
		if c.Database.PostgresURI == "" {
			return errors.New("POSTGRES_URI is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	if c.PollInterval <= 0 {
		return errors.New("POLL_INTERVAL must be positive")
	}
	if c.SendTimeout <= 0 {
		return errors.New("SEND_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
