package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mauv0809/tournament-stats/internal/config"
	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

//go:embed schema/source.sql
var sourceSchema string

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

// Dialect selects the SQL flavour used for the few non-portable expressions.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite3"
)

// DialectFor maps a configured driver name to its SQL dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return DialectMySQL, nil
	case "sqlite3", "libsql":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// MonthBucket returns an expression formatting a date column as YYYY-MM.
func (d Dialect) MonthBucket(column string) string {
	if d == DialectMySQL {
		return "DATE_FORMAT(" + column + ", '%Y-%m')"
	}
	return "strftime('%Y-%m', " + column + ")"
}

// DataSourceName returns the driver name and DSN for the configured target.
func DataSourceName(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Timeout = 10 * time.Second
		mc.ReadTimeout = 60 * time.Second
		mc.WriteTimeout = 30 * time.Second
		return "mysql", mc.FormatDSN(), nil
	case "libsql":
		if cfg.Turso.PrimaryURL != "" {
			return "libsql", cfg.Turso.PrimaryURL + "?authToken=" + cfg.Turso.AuthToken, nil
		}
		return "libsql", "file:" + cfg.Name, nil
	case "sqlite3":
		return "sqlite3", "file:" + cfg.Name + "?_busy_timeout=5000", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// InitDB opens the database handle. It does not connect: connectivity is
// checked per run so that a database outage never stops the process.
func InitDB(cfg config.DatabaseConfig) (*sql.DB, func(), error) {
	driver, dsn, err := DataSourceName(cfg)
	if err != nil {
		return nil, nil, err
	}

	if driver == "mysql" {
		log.Info("Initializing MySQL database", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name)
	} else if cfg.Turso.PrimaryURL != "" && driver == "libsql" {
		log.Info("Initializing Turso database", "url", cfg.Turso.PrimaryURL)
	} else {
		log.Info("Initializing local SQLite database", "path", cfg.Name, "driver", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One run holds one connection; the CLI may hold a second.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(10 * time.Minute)

	teardown := func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}
	return db, teardown, nil
}

// Migrate applies the system_stats migrations.
func Migrate(db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log.Default())
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// CreateSourceSchema creates the tournament tables in a SQLite database. It is
// used by the seeder and by tests; production schemas belong to the web app.
func CreateSourceSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(sourceSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create source schema: %w", err)
		}
	}
	log.Info("Source schema initialized successfully")
	return nil
}
