package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

var (
	ErrEmptyName    = errors.New("stats: stat name must not be empty")
	ErrStatNotFound = errors.New("stats: stat not found")
)

var _ Store = (*store)(nil)

// New creates a Store on top of conn, usually the single connection held
// for a computation run.
func New(conn Conn) Store {
	return &store{conn: conn}
}

func (s *store) Save(ctx context.Context, entry StatEntry) error {
	return s.SaveStat(ctx, entry.Name, entry.Value, entry.Category)
}

// SaveStat deletes any existing row for name and inserts the new value in a
// single transaction. The write is not interrupted by cancellation of ctx.
func (s *store) SaveStat(ctx context.Context, name string, value Value, category string) error {
	if name == "" {
		log.Error("Refusing to save stat without a name")
		return ErrEmptyName
	}
	if category == "" {
		category = CategoryGeneral
	}

	encoded, err := value.Encode()
	if err != nil {
		log.Error("Failed to encode stat", "stat", name, "kind", value.Kind(), "error", err)
		return fmt.Errorf("encode %s: %w", name, err)
	}

	ctx = context.WithoutCancel(ctx)
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		log.Error("Failed to begin transaction for stat", "stat", name, "error", err)
		return fmt.Errorf("save %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM system_stats WHERE stat_name = ?", name); err != nil {
		rollback(tx, name)
		log.Error("Failed to delete previous stat", "stat", name, "error", err)
		return fmt.Errorf("save %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO system_stats (stat_name, stat_value, stat_category) VALUES (?, ?, ?)",
		name, encoded, category,
	); err != nil {
		rollback(tx, name)
		log.Error("Failed to insert stat", "stat", name, "error", err)
		return fmt.Errorf("save %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit stat", "stat", name, "error", err)
		return fmt.Errorf("save %s: %w", name, err)
	}

	log.Debug("Saved stat", "stat", name, "category", category, "bytes", len(encoded))
	return nil
}

func rollback(tx *sql.Tx, name string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error("Failed to roll back stat transaction", "stat", name, "error", err)
	}
}

func (s *store) GetStat(ctx context.Context, name string) (*StoredStat, error) {
	var stat StoredStat
	var value sql.NullString
	err := s.conn.QueryRowContext(ctx,
		"SELECT stat_name, stat_value, stat_category FROM system_stats WHERE stat_name = ?", name,
	).Scan(&stat.Name, &value, &stat.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatNotFound
	}
	if err != nil {
		return nil, err
	}
	stat.Value = value.String
	return &stat, nil
}

func (s *store) ListStats(ctx context.Context, category string) ([]StoredStat, error) {
	query := "SELECT stat_name, stat_value, stat_category FROM system_stats"
	var args []any
	if category != "" {
		query += " WHERE stat_category = ?"
		args = append(args, category)
	}
	query += " ORDER BY stat_name"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StoredStat
	for rows.Next() {
		var stat StoredStat
		var value sql.NullString
		if err := rows.Scan(&stat.Name, &value, &stat.Category); err != nil {
			return nil, err
		}
		stat.Value = value.String
		result = append(result, stat)
	}
	return result, rows.Err()
}
