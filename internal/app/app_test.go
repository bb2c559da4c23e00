package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tournament-stats/internal/config"
	"github.com/mauv0809/tournament-stats/internal/scheduler"
	"github.com/mauv0809/tournament-stats/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.FromLookup(func(key string) (string, bool) {
		switch key {
		case "DB_DRIVER":
			return "sqlite3", true
		case "DB_NAME":
			return filepath.Join(t.TempDir(), "app.db"), true
		}
		return "", false
	})
	require.NoError(t, err)
	return cfg
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	cfg := config.Config{LogLevel: "debug", LogFormat: "text"}
	ConfigureLogging(cfg)
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	cfg.LogLevel = "loud"
	ConfigureLogging(cfg)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestResolveSecretsWithoutProject(t *testing.T) {
	cfg := config.Config{Database: config.DatabaseConfig{Password: "1234"}}
	assert.Equal(t, "1234", ResolveSecrets(context.Background(), cfg).Database.Password)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	_, _, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewRunsOnceAgainstSQLite(t *testing.T) {
	cfg := testConfig(t)
	a, teardown, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer teardown()

	require.NoError(t, a.Migrate(context.Background()))

	// Without source tables every job fails, but the heartbeat is still written.
	result := a.Loop.RunOnce(context.Background())
	assert.Equal(t, scheduler.StatePartialFailure, result.State)
	assert.Len(t, result.Report.FailedJobs, 5)

	got, err := stats.New(a.DB).GetStat(context.Background(), stats.HeartbeatName)
	require.NoError(t, err)
	assert.Equal(t, result.ComputedAt.Format("2006-01-02T15:04:05Z07:00"), got.Value)
}

func TestMigrateIgnoresRunMigrationsSetting(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunMigrations = false
	a, teardown, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer teardown()

	require.NoError(t, a.Migrate(context.Background()))
	require.NoError(t, a.Migrate(context.Background()))

	all, err := stats.New(a.DB).ListStats(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}
