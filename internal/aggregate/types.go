package aggregate

import (
	"context"
	"database/sql"

	"github.com/mauv0809/tournament-stats/internal/stats"
)

// Stat names published by the aggregation jobs.
const (
	StatSummary              = "summary"
	StatMatchesPerTeam       = "matches_per_team"
	StatTeamWinRates         = "team_win_rates"
	StatTopPlayersByElo      = "top_players_by_elo"
	StatMostActivePlayers    = "most_active_players"
	StatAvgEloByNationality  = "avg_elo_by_nationality"
	StatTotalMatches         = "total_matches"
	StatMatchesByResult      = "matches_by_result"
	StatMatchesPerMonth      = "matches_per_month"
	StatArbiterAvgRatings    = "arbiter_avg_ratings"
	StatHallUtilization      = "hall_utilization"
	topPlayersLimit          = 10
	monthsReported           = 12
	minPlayersPerNationality = 2
	unknownResultLabel       = "unknown"
)

// Querier is the read side of the connection held for a run.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Saver publishes one computed stat. Implementations handle and record
// write failures themselves; a failed save never stops a job.
type Saver interface {
	Save(ctx context.Context, name string, value stats.Value, category string)
}

// Job is one independent aggregation unit.
type Job struct {
	Name string
	Run  func(ctx context.Context, q Querier, save Saver) error
}

// Report summarises one pass over all jobs.
type Report struct {
	Written      []string
	FailedJobs   []string
	FailedWrites []string
}

// OK reports whether every job ran and every stat was written.
func (r Report) OK() bool {
	return len(r.FailedJobs) == 0 && len(r.FailedWrites) == 0
}

type TeamMatches struct {
	TeamID   int64  `json:"team_id"`
	TeamName string `json:"team_name"`
	Matches  int64  `json:"matches"`
}

type TeamWinRate struct {
	TeamID     int64         `json:"team_id"`
	TeamName   string        `json:"team_name"`
	Wins       int64         `json:"wins"`
	TotalGames int64         `json:"total_games"`
	WinRate    stats.Decimal `json:"win_rate"`
}

type TopPlayer struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	Elo         int64  `json:"elo"`
	Nationality string `json:"nationality"`
}

type ActivePlayer struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Matches  int64  `json:"matches"`
}

type NationalityElo struct {
	Nationality string `json:"nationality"`
	AvgElo      int64  `json:"avg_elo"`
	PlayerCount int64  `json:"player_count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type ArbiterRating struct {
	Arbiter    string        `json:"arbiter"`
	AvgRating  stats.Decimal `json:"avg_rating"`
	RatedCount int64         `json:"rated_count"`
}

type HallUsage struct {
	HallID        int64  `json:"hall_id"`
	HallName      string `json:"hall_name"`
	Country       string `json:"country"`
	Capacity      int64  `json:"capacity"`
	MatchesHosted int64  `json:"matches_hosted"`
}
