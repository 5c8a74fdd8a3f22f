// Package storage is the persistence gateway for learning-path records and
// the per-course resource cache. It runs on an embedded SQLite file by
// default and on PostgreSQL when a connection URL is configured.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql
	_ "modernc.org/sqlite"             // SQLite driver for database/sql
)

// Dialect identifies the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const (
	memoryPath         = ":memory:"
	slowQueryThreshold = 100 * time.Millisecond
)

// sqlitePragmas are applied to every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(30000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// ErrSnapshotUnsupported is returned by CreateSnapshot on non-SQLite backends.
var ErrSnapshotUnsupported = errors.New("snapshot requires the sqlite backend")

// DB wraps the database connection pools.
// SQLite uses a single writer connection and a separate reader pool;
// PostgreSQL shares one pool for both.
type DB struct {
	writer  *sql.DB
	reader  *sql.DB
	path    string
	dialect Dialect
}

// New opens (or creates) the SQLite database at dbPath and initializes the schema.
func New(ctx context.Context, dbPath string) (*DB, error) {
	if dbPath != memoryPath {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db := &DB{path: dbPath, dialect: DialectSQLite}

	if dbPath == memoryPath {
		// Every connection to :memory: is a separate database, so readers
		// and the writer must share one connection.
		conn, err := openSQLiteMemory(ctx)
		if err != nil {
			return nil, err
		}
		db.writer, db.reader = conn, conn
	} else {
		dsn := sqliteDSN(dbPath)
		writer, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		writer.SetMaxOpenConns(1)
		writer.SetConnMaxLifetime(time.Hour)

		reader, err := sql.Open("sqlite", dsn)
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		reader.SetMaxOpenConns(8)
		reader.SetMaxIdleConns(4)
		reader.SetConnMaxLifetime(time.Hour)

		db.writer, db.reader = writer, reader
	}

	if err := db.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewPostgres connects to PostgreSQL through pgx and initializes the schema.
func NewPostgres(ctx context.Context, databaseURL string) (*DB, error) {
	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{writer: conn, reader: conn, dialect: DialectPostgres}
	if err := db.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewTestDB creates an in-memory SQLite database for tests.
func NewTestDB() (*DB, error) {
	return New(context.Background(), memoryPath)
}

func openSQLiteMemory(ctx context.Context) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", memoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	// The database disappears with its last connection.
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)

	for _, pragma := range []string{"PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=30000"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return conn, nil
}

func sqliteDSN(path string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	return path + "?" + strings.Join(params, "&")
}

func (db *DB) init(ctx context.Context) error {
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := InitSchema(ctx, db.writer); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes all connection pools.
func (db *DB) Close() error {
	var errs []error
	if db.reader != nil && db.reader != db.writer {
		errs = append(errs, db.reader.Close())
	}
	if db.writer != nil {
		errs = append(errs, db.writer.Close())
	}
	return errors.Join(errs...)
}

// Ping verifies both pools are reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return err
	}
	if db.reader != db.writer {
		return db.reader.PingContext(ctx)
	}
	return nil
}

// Path returns the SQLite file path, or "" for PostgreSQL.
func (db *DB) Path() string {
	return db.path
}

// Dialect returns the active backend.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// CreateSnapshot writes a consistent copy of the SQLite database to destPath.
func (db *DB) CreateSnapshot(ctx context.Context, destPath string) error {
	if db.dialect != DialectSQLite {
		return ErrSnapshotUnsupported
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}

	start := time.Now()
	if _, err := db.writer.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("vacuum into snapshot: %w", err)
	}
	slog.DebugContext(ctx, "database snapshot created",
		"path", destPath,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
// Queries must not contain literal question marks.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// warnIfSlow logs operations slower than the slow-query threshold.
func warnIfSlow(ctx context.Context, operation string, start time.Time, attrs ...any) {
	duration := time.Since(start)
	if duration <= slowQueryThreshold {
		return
	}
	args := append([]any{"operation", operation, "duration_ms", duration.Milliseconds()}, attrs...)
	slog.WarnContext(ctx, "slow database operation", args...)
}
