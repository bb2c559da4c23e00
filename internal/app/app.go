package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tournament-stats/internal/aggregate"
	"github.com/mauv0809/tournament-stats/internal/config"
	"github.com/mauv0809/tournament-stats/internal/database"
	"github.com/mauv0809/tournament-stats/internal/metrics"
	"github.com/mauv0809/tournament-stats/internal/notifier/slack"
	"github.com/mauv0809/tournament-stats/internal/pubsub"
	"github.com/mauv0809/tournament-stats/internal/scheduler"
	"github.com/mauv0809/tournament-stats/internal/secrets"
	"github.com/prometheus/client_golang/prometheus"
)

// App holds the wired components shared by the worker and the CLI.
type App struct {
	Config     config.Config
	DB         *sql.DB
	Pool       *database.Pool
	Registry   *prometheus.Registry
	Metrics    *metrics.Service
	Aggregator *aggregate.Aggregator
	Loop       *scheduler.Loop
}

// ConfigureLogging applies the log level and format from cfg.
func ConfigureLogging(cfg config.Config) {
	switch strings.ToLower(cfg.LogFormat) {
	case "text":
		log.SetFormatter(log.TextFormatter)
	case "logfmt":
		log.SetFormatter(log.LogfmtFormatter)
	default:
		log.SetFormatter(log.JSONFormatter)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn("Unknown log level, using info", "level", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// ResolveSecrets replaces the database password with the one stored in
// Secret Manager when a GCP project is configured.
func ResolveSecrets(ctx context.Context, cfg config.Config) config.Config {
	if cfg.Secrets.ProjectID == "" {
		return cfg
	}
	accessor, closeClient, err := secrets.New(ctx)
	if err != nil {
		log.Warn("Secret Manager unavailable, using DB_PASSWORD", "error", err)
		return cfg
	}
	defer closeClient()

	password := secrets.ResolvePassword(ctx, accessor, cfg.Secrets.ProjectID, cfg.Secrets.PasswordSecretID, cfg.Database.Password)
	return cfg.WithPassword(password)
}

// New wires the database, metrics, aggregation and scheduler from cfg.
// Optional integrations that fail to start are logged and left out.
func New(ctx context.Context, cfg config.Config) (*App, func(), error) {
	dialect, err := database.DialectFor(cfg.Database.Driver)
	if err != nil {
		return nil, nil, err
	}

	db, dbTeardown, err := database.InitDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	teardowns := []func(){dbTeardown}
	teardown := func() {
		for i := len(teardowns) - 1; i >= 0; i-- {
			teardowns[i]()
		}
	}

	registry := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(registry)
	pool := database.NewPool(db, dialect, cfg.RunMigrations)
	aggregator := aggregate.New(dialect, metricsSvc)

	opts := []scheduler.Option{scheduler.WithInterval(cfg.ComputeInterval)}

	if cfg.PubSub.Enabled() {
		client, err := pubsub.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			log.Warn("Refresh events disabled", "error", err)
		} else {
			teardowns = append(teardowns, client.Close)
			opts = append(opts, scheduler.WithPublisher(client, cfg.PubSub.Topic))
			log.Info("Publishing refresh events", "topic", cfg.PubSub.Topic)
		}
	}

	if cfg.Slack.Enabled() {
		opts = append(opts, scheduler.WithNotifier(slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)))
		log.Info("Slack alerts enabled", "channel", cfg.Slack.ChannelID)
	}

	if cfg.PushgatewayURL != "" {
		opts = append(opts, scheduler.WithPusher(metrics.NewPusher(cfg.PushgatewayURL, instanceName(), registry)))
		log.Info("Pushing metrics", "url", cfg.PushgatewayURL)
	}

	return &App{
		Config:     cfg,
		DB:         db,
		Pool:       pool,
		Registry:   registry,
		Metrics:    metricsSvc,
		Aggregator: aggregator,
		Loop:       scheduler.New(pool, aggregator, metricsSvc, opts...),
	}, teardown, nil
}

// Migrate applies the stat store migrations right away, whatever
// RunMigrations says. Applied migrations are skipped.
func (a *App) Migrate(ctx context.Context) error {
	conn, err := a.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	conn.Close()
	return database.Migrate(a.DB, a.Pool.Dialect())
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil {
		return ""
	}
	return host
}
