package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	DefaultComputeInterval  = 300 * time.Second
	DefaultPasswordSecretID = "chess-tournament-db-password"
)

var (
	ErrInvalidInterval = errors.New("config: COMPUTE_INTERVAL must be a positive number of seconds")
	ErrInvalidPort     = errors.New("config: DB_PORT must be a valid port number")
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from environment variables and .env file.
func Load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from the given lookup function, applying the
// defaults of the original deployment for anything unset.
func FromLookup(lookup LookupFunc) (Config, error) {
	getEnv := func(key, fallback string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return fallback
	}

	port, err := strconv.Atoi(getEnv("DB_PORT", "3306"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidPort, getEnv("DB_PORT", ""))
	}

	intervalSeconds, err := strconv.Atoi(getEnv("COMPUTE_INTERVAL", "300"))
	if err != nil || intervalSeconds <= 0 {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidInterval, getEnv("COMPUTE_INTERVAL", ""))
	}

	runMigrations, err := strconv.ParseBool(getEnv("RUN_MIGRATIONS", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("config: RUN_MIGRATIONS: %w", err)
	}

	projectID := getEnv("GCP_PROJECT", "")

	cfg := Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     port,
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", "1234"),
			Name:     getEnv("DB_NAME", "chessdb"),
			Turso: TursoConfig{
				PrimaryURL: getEnv("TURSO_PRIMARY_URL", ""),
				AuthToken:  getEnv("TURSO_AUTH_TOKEN", ""),
			},
		},
		ComputeInterval: time.Duration(intervalSeconds) * time.Second,
		RunMigrations:   runMigrations,
		Secrets: SecretsConfig{
			ProjectID:        projectID,
			PasswordSecretID: getEnv("DB_PASSWORD_SECRET", DefaultPasswordSecretID),
		},
		PubSub: PubSubConfig{
			ProjectID: projectID,
			Topic:     getEnv("STATS_TOPIC", ""),
		},
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
		Slack: SlackConfig{
			Token:     getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		},
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}
	return cfg, nil
}
