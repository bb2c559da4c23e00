package config

import "time"

// Config holds all configuration for the stats worker. It is built once at
// startup and passed by value; nothing reads the environment after Load.
type Config struct {
	Database        DatabaseConfig
	ComputeInterval time.Duration
	RunMigrations   bool
	Secrets         SecretsConfig
	PubSub          PubSubConfig
	PushgatewayURL  string
	Slack           SlackConfig
	LogLevel        string
	LogFormat       string
}

// DatabaseConfig describes the connection target shared by the source
// tables and the system_stats table.
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Turso    TursoConfig
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

// SecretsConfig enables the Secret Manager password lookup when ProjectID is set.
type SecretsConfig struct {
	ProjectID        string
	PasswordSecretID string
}

type PubSubConfig struct {
	ProjectID string
	Topic     string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether failure alerts can be sent.
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.ChannelID != ""
}

// Enabled reports whether refresh events should be published.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != "" && p.Topic != ""
}

// WithPassword returns a copy of the config using the given database password.
func (c Config) WithPassword(password string) Config {
	c.Database.Password = password
	return c
}
