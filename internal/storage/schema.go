package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements is portable between SQLite and PostgreSQL.
// Timestamps are Unix milliseconds. Records are deduplicated on the SHA-256
// of their canonical course key so the unique index stays small however
// long the course list gets.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS learning_records (
		id TEXT PRIMARY KEY,
		major TEXT NOT NULL,
		courses TEXT NOT NULL,
		course_key_hash CHAR(64) NOT NULL,
		votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_learning_records_major_key ON learning_records(major, course_key_hash)`,
	`CREATE INDEX IF NOT EXISTS idx_learning_records_votes ON learning_records(votes DESC, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS course_cache (
		course_name TEXT NOT NULL,
		major TEXT NOT NULL,
		language TEXT NOT NULL,
		mooc_courses TEXT NOT NULL,
		textbooks TEXT NOT NULL,
		updated_at BIGINT NOT NULL,
		PRIMARY KEY (course_name, major, language)
	)`,
}

// InitSchema creates all tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
