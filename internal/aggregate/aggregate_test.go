package aggregate_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mauv0809/tournament-stats/internal/aggregate"
	"github.com/mauv0809/tournament-stats/internal/config"
	"github.com/mauv0809/tournament-stats/internal/database"
	"github.com/mauv0809/tournament-stats/internal/metrics"
	"github.com/mauv0809/tournament-stats/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seed = []string{
	`INSERT INTO users (username, password, role) VALUES ('admin', 'x', 'manager'), ('coach1', 'x', 'coach')`,
	`INSERT INTO teams (team_id, team_name) VALUES (1, 'Alpha'), (2, 'Bravo'), (3, 'Charlie')`,
	`INSERT INTO halls (hall_id, hall_name, hall_country, hall_capacity) VALUES
		(1, 'Grand Hall', 'TR', 100), (2, 'Small Hall', 'DE', 20), (3, 'Empty Hall', 'FR', 10)`,
	`INSERT INTO coaches (username, name, surname, team_id) VALUES ('coach1', 'Carl', 'Coach', 1)`,
	`INSERT INTO arbiters (username, name, surname) VALUES ('arb1', 'Ann', 'Arbiter'), ('arb2', 'Ben', 'Arbiter')`,
	`INSERT INTO players (username, name, surname, nationality, elorating) VALUES
		('p1', 'Ada', 'Lovelace', 'TR', 2000),
		('p2', 'Bob', 'Fischer', 'TR', 2400),
		('p3', 'Cem', 'Kaya', 'DE', 2100),
		('p4', 'Dan', 'One', 'US', 2500),
		('p5', 'Eve', 'Two', 'US', 2500),
		('p6', 'Fay', 'Three', 'US', 1500),
		('p7', 'Gus', 'Four', 'US', 1600),
		('p8', 'Hal', 'Five', 'US', 1700),
		('p9', 'Ivy', 'Six', 'US', 1800),
		('p10', 'Jon', 'Seven', 'US', 1900),
		('p11', 'Kim', 'Eight', 'US', 1400),
		('p12', 'Lou', 'Nine', NULL, 2600)`,
	`INSERT INTO matches (match_id, date, hall_id, team1_id, team2_id, arbiter_username, ratings) VALUES
		(1, '2024-01-10', 1, 1, 2, 'arb1', 4.50),
		(2, '2024-01-20', 1, 2, 1, 'arb1', 4.25),
		(3, '2024-02-05', 2, 1, 2, 'arb2', NULL),
		(4, NULL, 1, 1, 2, 'arb2', 3.00)`,
	`INSERT INTO match_assignments (match_id, white_player, black_player, result) VALUES
		(1, 'p1', 'p2', 'white wins'),
		(2, 'p2', 'p1', 'black wins'),
		(3, 'p1', 'p3', 'draw'),
		(4, 'p2', 'p3', NULL)`,
}

// setupSourceDB creates a temporary SQLite database holding both the source
// tables with seed data and the system_stats table.
func setupSourceDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	cfg := config.DatabaseConfig{Driver: "sqlite3", Name: filepath.Join(t.TempDir(), "tournament.db")}
	db, teardown, err := database.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DialectSQLite))
	require.NoError(t, database.CreateSourceSchema(context.Background(), db))
	for _, stmt := range seed {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db, teardown
}

func readStat[T any](t *testing.T, store stats.Store, name string) T {
	t.Helper()
	got, err := store.GetStat(context.Background(), name)
	require.NoError(t, err, "stat %s", name)
	var out T
	require.NoError(t, json.Unmarshal([]byte(got.Value), &out), "stat %s: %s", name, got.Value)
	return out
}

func TestRunPublishesAllStats(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()

	m := metrics.NewMock()
	report := aggregate.New(database.DialectSQLite, m).Run(context.Background(), db)

	assert.True(t, report.OK(), "report: %+v", report)
	assert.Equal(t, []string{
		aggregate.StatSummary,
		aggregate.StatMatchesPerTeam,
		aggregate.StatTeamWinRates,
		aggregate.StatTopPlayersByElo,
		aggregate.StatMostActivePlayers,
		aggregate.StatAvgEloByNationality,
		aggregate.StatTotalMatches,
		aggregate.StatMatchesByResult,
		aggregate.StatMatchesPerMonth,
		aggregate.StatArbiterAvgRatings,
		aggregate.StatHallUtilization,
	}, report.Written)
	assert.Zero(t, m.StatWriteFailures())
}

func TestSummary(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()
	aggregate.New(database.DialectSQLite, metrics.NewMock()).Run(context.Background(), db)

	summary := readStat[map[string]int64](t, stats.New(db), aggregate.StatSummary)
	assert.Equal(t, map[string]int64{
		"total_users":        2,
		"total_players":      12,
		"total_coaches":      1,
		"total_arbiters":     2,
		"total_teams":        3,
		"total_matches":      4,
		"total_halls":        3,
		"average_player_elo": 2000,
	}, summary)
}

func TestSummaryWithoutPlayersAveragesToZero(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()
	_, err := db.Exec("DELETE FROM players")
	require.NoError(t, err)

	aggregate.New(database.DialectSQLite, metrics.NewMock()).Run(context.Background(), db)

	summary := readStat[map[string]int64](t, stats.New(db), aggregate.StatSummary)
	assert.Equal(t, int64(0), summary["average_player_elo"])
	assert.Equal(t, int64(0), summary["total_players"])
}

func TestTeamStats(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()
	aggregate.New(database.DialectSQLite, metrics.NewMock()).Run(context.Background(), db)
	store := stats.New(db)

	perTeam := readStat[[]aggregate.TeamMatches](t, store, aggregate.StatMatchesPerTeam)
	assert.Equal(t, []aggregate.TeamMatches{
		{TeamID: 1, TeamName: "Alpha", Matches: 4},
		{TeamID: 2, TeamName: "Bravo", Matches: 4},
		{TeamID: 3, TeamName: "Charlie", Matches: 0},
	}, perTeam)

	rates := readStat[[]aggregate.TeamWinRate](t, store, aggregate.StatTeamWinRates)
	require.Len(t, rates, 3)
	assert.Equal(t, int64(2), rates[0].Wins)
	assert.Equal(t, int64(4), rates[0].TotalGames)
	assert.Equal(t, "50", rates[0].WinRate.String())
	assert.Equal(t, "0", rates[1].WinRate.String())

	// A team without games has a win rate of 0.
	assert.Equal(t, int64(3), rates[2].TeamID)
	assert.Equal(t, int64(0), rates[2].TotalGames)
	assert.True(t, rates[2].WinRate.IsZero())
}

func TestPlayerStats(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()
	aggregate.New(database.DialectSQLite, metrics.NewMock()).Run(context.Background(), db)
	store := stats.New(db)

	top := readStat[[]aggregate.TopPlayer](t, store, aggregate.StatTopPlayersByElo)
	require.Len(t, top, 10)
	var usernames []string
	for i, p := range top {
		usernames = append(usernames, p.Username)
		if i > 0 {
			assert.LessOrEqual(t, p.Elo, top[i-1].Elo)
		}
	}
	assert.Equal(t, []string{"p12", "p4", "p5", "p2", "p3", "p1", "p10", "p9", "p8", "p7"}, usernames)
	assert.Equal(t, "Lou Nine", top[0].Name)
	assert.Empty(t, top[0].Nationality)

	active := readStat[[]aggregate.ActivePlayer](t, store, aggregate.StatMostActivePlayers)
	require.Len(t, active, 10)
	assert.Equal(t, aggregate.ActivePlayer{Username: "p1", Name: "Ada Lovelace", Matches: 3}, active[0])
	assert.Equal(t, aggregate.ActivePlayer{Username: "p2", Name: "Bob Fischer", Matches: 3}, active[1])
	assert.Equal(t, int64(2), active[2].Matches)
	assert.Equal(t, int64(0), active[3].Matches)

	// DE has a single player and is left out; US averages 1862.5.
	byNationality := readStat[[]aggregate.NationalityElo](t, store, aggregate.StatAvgEloByNationality)
	assert.Equal(t, []aggregate.NationalityElo{
		{Nationality: "TR", AvgElo: 2200, PlayerCount: 2},
		{Nationality: "US", AvgElo: 1863, PlayerCount: 8},
	}, byNationality)
}

func TestMatchStats(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()
	aggregate.New(database.DialectSQLite, metrics.NewMock()).Run(context.Background(), db)
	store := stats.New(db)

	total, err := store.GetStat(context.Background(), aggregate.StatTotalMatches)
	require.NoError(t, err)
	assert.Equal(t, "4", total.Value)

	byResult := readStat[map[string]int64](t, store, aggregate.StatMatchesByResult)
	assert.Equal(t, map[string]int64{"white wins": 1, "black wins": 1, "draw": 1, "unknown": 1}, byResult)

	perMonth := readStat[[]aggregate.MonthCount](t, store, aggregate.StatMatchesPerMonth)
	assert.Equal(t, []aggregate.MonthCount{
		{Month: "2024-02", Count: 1},
		{Month: "2024-01", Count: 2},
	}, perMonth)

	raw, err := store.GetStat(context.Background(), aggregate.StatArbiterAvgRatings)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"arbiter": "arb1", "avg_rating": 4.38, "rated_count": 2},
		{"arbiter": "arb2", "avg_rating": 3, "rated_count": 1}
	]`, raw.Value)
}

func TestMatchesPerMonthKeepsMostRecentTwelve(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()

	for month := 1; month <= 12; month++ {
		_, err := db.Exec("INSERT INTO matches (match_id, date, hall_id, team1_id, team2_id) VALUES (?, ?, 2, 1, 3)",
			100+month, fmt.Sprintf("2023-%02d-15", month))
		require.NoError(t, err)
	}
	aggregate.New(database.DialectSQLite, metrics.NewMock()).Run(context.Background(), db)

	perMonth := readStat[[]aggregate.MonthCount](t, stats.New(db), aggregate.StatMatchesPerMonth)
	require.Len(t, perMonth, 12)
	assert.Equal(t, "2024-02", perMonth[0].Month)
	assert.Equal(t, "2023-03", perMonth[11].Month)
}

func TestHallUtilizationReportsUnusedHalls(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()
	aggregate.New(database.DialectSQLite, metrics.NewMock()).Run(context.Background(), db)

	usage := readStat[[]aggregate.HallUsage](t, stats.New(db), aggregate.StatHallUtilization)
	assert.Equal(t, []aggregate.HallUsage{
		{HallID: 1, HallName: "Grand Hall", Country: "TR", Capacity: 100, MatchesHosted: 3},
		{HallID: 2, HallName: "Small Hall", Country: "DE", Capacity: 20, MatchesHosted: 1},
		{HallID: 3, HallName: "Empty Hall", Country: "FR", Capacity: 10, MatchesHosted: 0},
	}, usage)
}

func TestFailingJobDoesNotStopOthers(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()
	_, err := db.Exec("DROP TABLE players")
	require.NoError(t, err)

	m := metrics.NewMock()
	report := aggregate.New(database.DialectSQLite, m).Run(context.Background(), db)

	assert.False(t, report.OK())
	assert.Equal(t, []string{"summary", "players"}, report.FailedJobs)
	assert.Equal(t, 1, m.JobFailures("players"))
	assert.Equal(t, 1, m.JobFailures("summary"))
	assert.Contains(t, report.Written, aggregate.StatTotalMatches)
	assert.Contains(t, report.Written, aggregate.StatMatchesByResult)
	assert.Contains(t, report.Written, aggregate.StatHallUtilization)

	store := stats.New(db)
	_, err = store.GetStat(context.Background(), aggregate.StatHallUtilization)
	assert.NoError(t, err)
	_, err = store.GetStat(context.Background(), aggregate.StatTopPlayersByElo)
	assert.ErrorIs(t, err, stats.ErrStatNotFound)
}

func TestFailedWriteIsRecordedAndRunContinues(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()

	mockStore := stats.NewMock()
	mockStore.SaveStatFunc = func(name string, value stats.Value, category string) error {
		if name == aggregate.StatTeamWinRates {
			return errors.New("constraint violation")
		}
		return nil
	}
	m := metrics.NewMock()
	a := aggregate.New(database.DialectSQLite, m,
		aggregate.WithStoreFactory(func(stats.Conn) stats.Store { return mockStore }))

	report := a.Run(context.Background(), db)

	assert.Empty(t, report.FailedJobs)
	assert.Equal(t, []string{aggregate.StatTeamWinRates}, report.FailedWrites)
	assert.Equal(t, 1, m.StatWriteFailures())
	assert.Len(t, mockStore.SaveStatCalls, 11)
	assert.Equal(t, aggregate.StatTopPlayersByElo, mockStore.SavedNames()[3])
}

// entryStore records the entries handed to Save.
type entryStore struct {
	*stats.Mock
	entries []stats.StatEntry
}

func (s *entryStore) Save(ctx context.Context, entry stats.StatEntry) error {
	s.entries = append(s.entries, entry)
	return s.Mock.Save(ctx, entry)
}

func TestRunSavesEntriesWithCategories(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()

	store := &entryStore{Mock: stats.NewMock()}
	a := aggregate.New(database.DialectSQLite, metrics.NewMock(),
		aggregate.WithStoreFactory(func(stats.Conn) stats.Store { return store }))

	report := a.Run(context.Background(), db)

	require.True(t, report.OK())
	require.Len(t, store.entries, len(report.Written))
	assert.Equal(t, aggregate.StatSummary, store.entries[0].Name)
	assert.Equal(t, stats.CategorySummary, store.entries[0].Category)
	assert.Equal(t, aggregate.StatHallUtilization, store.entries[len(store.entries)-1].Name)
	assert.Equal(t, stats.CategoryHalls, store.entries[len(store.entries)-1].Category)
}

func TestPanickingJobIsIsolated(t *testing.T) {
	db, teardown := setupSourceDB(t)
	defer teardown()

	var ranAfter bool
	m := metrics.NewMock()
	a := aggregate.New(database.DialectSQLite, m, aggregate.WithJobs(
		aggregate.Job{Name: "broken", Run: func(context.Context, aggregate.Querier, aggregate.Saver) error {
			panic("unexpected row shape")
		}},
		aggregate.Job{Name: "after", Run: func(ctx context.Context, q aggregate.Querier, save aggregate.Saver) error {
			ranAfter = true
			save.Save(ctx, "after", stats.Int(1), stats.CategoryGeneral)
			return nil
		}},
	))

	var report aggregate.Report
	assert.NotPanics(t, func() { report = a.Run(context.Background(), db) })
	assert.True(t, ranAfter)
	assert.Equal(t, []string{"broken"}, report.FailedJobs)
	assert.Equal(t, []string{"after"}, report.Written)
	assert.Equal(t, 1, m.JobFailures("broken"))
}
