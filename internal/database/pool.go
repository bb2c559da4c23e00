package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const defaultConnectTimeout = 10 * time.Second

// Pool hands out single connections for a computation run.
type Pool struct {
	db             *sql.DB
	dialect        Dialect
	migrate        bool
	migrated       atomic.Bool
	connectTimeout time.Duration
}

// NewPool wraps db. When migrate is true the system_stats migrations are
// applied on the first successful acquisition, so a database that is down at
// startup is handled like any other connectivity failure.
func NewPool(db *sql.DB, dialect Dialect, migrate bool) *Pool {
	return &Pool{
		db:             db,
		dialect:        dialect,
		migrate:        migrate,
		connectTimeout: defaultConnectTimeout,
	}
}

// Dialect returns the SQL dialect of the pooled database.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// Acquire returns a verified connection. The caller must Close it.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	connectCtx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	if err := p.db.PingContext(connectCtx); err != nil {
		return nil, fmt.Errorf("database: ping failed: %w", err)
	}

	if p.migrate && !p.migrated.Load() {
		if err := Migrate(p.db, p.dialect); err != nil {
			return nil, err
		}
		p.migrated.Store(true)
		log.Info("Stat store migrations applied")
	}

	conn, err := p.db.Conn(connectCtx)
	if err != nil {
		return nil, fmt.Errorf("database: failed to acquire connection: %w", err)
	}
	return conn, nil
}
