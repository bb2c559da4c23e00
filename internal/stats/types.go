package stats

import (
	"context"
	"database/sql"
)

// Categories group related stats for retrieval.
const (
	CategoryGeneral  = "general"
	CategorySummary  = "summary"
	CategoryTeams    = "teams"
	CategoryPlayers  = "players"
	CategoryMatches  = "matches"
	CategoryArbiters = "arbiters"
	CategoryHalls    = "halls"
	CategoryMeta     = "meta"
)

// HeartbeatName is the reserved stat holding the completion time of the last run.
const HeartbeatName = "last_computed_at"

// Conn is the subset of *sql.DB and *sql.Conn the store needs.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// StatEntry is a stat to be written.
type StatEntry struct {
	Name     string
	Value    Value
	Category string
}

// StoredStat is a stat as read back from the store, value in its stored form.
type StoredStat struct {
	Name     string `json:"stat_name"`
	Value    string `json:"stat_value"`
	Category string `json:"stat_category"`
}

// store persists stats in the system_stats table.
type store struct {
	conn Conn
}
