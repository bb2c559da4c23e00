package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tournament-stats/internal/app"
	"github.com/mauv0809/tournament-stats/internal/config"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	app.ConfigureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg = app.ResolveSecrets(ctx, cfg)

	worker, teardown, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize worker: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		teardown()
	}()

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	worker.Metrics.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	worker.Loop.Run(ctx)

	log.Info("Worker process shutting down")
}
