package storage

import (
	"cmp"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	domerrors "github.com/garyellow/uonline/internal/errors"
)

// CourseKey returns the canonical key of a course list: its JSON encoding
// after sorting by name, then description. Order-insensitive by construction.
func CourseKey(courses []Course) (string, error) {
	sorted := slices.Clone(courses)
	if sorted == nil {
		sorted = []Course{}
	}
	slices.SortFunc(sorted, func(a, b Course) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Description, b.Description)
	})
	data, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("encode course key: %w", err)
	}
	return string(data), nil
}

// CourseKeyHash returns the hex SHA-256 of CourseKey(courses).
func CourseKeyHash(courses []Course) (string, error) {
	key, err := CourseKey(courses)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]), nil
}

// SaveRecord stores a learning path unless one with the same major and
// course set exists, in which case the existing id is returned with existed=true.
func (db *DB) SaveRecord(ctx context.Context, major string, courses []Course) (string, bool, error) {
	if courses == nil {
		courses = []Course{}
	}
	key, err := CourseKeyHash(courses)
	if err != nil {
		return "", false, err
	}
	coursesJSON, err := json.Marshal(courses)
	if err != nil {
		return "", false, fmt.Errorf("encode courses: %w", err)
	}

	start := time.Now()
	defer warnIfSlow(ctx, "SaveRecord", start, "major", major)

	if id, err := db.findRecordID(ctx, major, key); err == nil {
		return id, true, nil
	} else if !errors.Is(err, domerrors.ErrNotFound) {
		return "", false, err
	}

	id := uuid.NewString()
	now := time.Now().UnixMilli()
	query := `
		INSERT INTO learning_records (id, major, courses, course_key_hash, votes, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(major, course_key_hash) DO NOTHING
	`
	res, err := db.writer.ExecContext(ctx, db.rebind(query), id, major, string(coursesJSON), key, now, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save record",
			"major", major,
			"error", err)
		return "", false, fmt.Errorf("insert record: %w", err)
	}

	// A concurrent save of the same set won the race.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		existing, err := db.findRecordID(ctx, major, key)
		if err != nil {
			return "", false, err
		}
		return existing, true, nil
	}

	return id, false, nil
}

func (db *DB) findRecordID(ctx context.Context, major, keyHash string) (string, error) {
	query := `SELECT id FROM learning_records WHERE major = ? AND course_key_hash = ?`

	var id string
	err := db.writer.QueryRowContext(ctx, db.rebind(query), major, keyHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domerrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query record by course key: %w", err)
	}
	return id, nil
}

// GetRecord returns the record with the given id, or ErrNotFound.
func (db *DB) GetRecord(ctx context.Context, id string) (*LearningPathRecord, error) {
	query := `
		SELECT id, major, courses, votes, created_at, updated_at
		FROM learning_records
		WHERE id = ?
	`

	start := time.Now()
	defer warnIfSlow(ctx, "GetRecord", start, "record_id", id)

	record, err := scanRecord(db.reader.QueryRowContext(ctx, db.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		slog.DebugContext(ctx, "record not found", "record_id", id)
		return nil, domerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return record, nil
}

// ListTopRecords returns up to limit records ordered by votes, newest first on ties.
func (db *DB) ListTopRecords(ctx context.Context, limit int) ([]LearningPathRecord, error) {
	query := `
		SELECT id, major, courses, votes, created_at, updated_at
		FROM learning_records
		ORDER BY votes DESC, created_at DESC
		LIMIT ?
	`

	start := time.Now()
	defer warnIfSlow(ctx, "ListTopRecords", start, "limit", limit)

	rows, err := db.reader.QueryContext(ctx, db.rebind(query), limit)
	if err != nil {
		return nil, fmt.Errorf("query top records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]LearningPathRecord, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable record", "error", err)
			continue
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top records: %w", err)
	}
	return records, nil
}

// IncrementVotes adds one vote atomically and returns the new total.
func (db *DB) IncrementVotes(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE learning_records
		SET votes = votes + 1, updated_at = ?
		WHERE id = ?
		RETURNING votes
	`

	start := time.Now()
	defer warnIfSlow(ctx, "IncrementVotes", start, "record_id", id)

	var votes int
	err := db.writer.QueryRowContext(ctx, db.rebind(query), time.Now().UnixMilli(), id).Scan(&votes)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domerrors.ErrNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to increment votes",
			"record_id", id,
			"error", err)
		return 0, fmt.Errorf("increment votes: %w", err)
	}
	return votes, nil
}

// CountRecords returns the number of stored records.
func (db *DB) CountRecords(ctx context.Context) (int, error) {
	return db.count(ctx, "learning_records")
}

// GetCourseCache returns the cached resources for the key, or ErrNotFound.
func (db *DB) GetCourseCache(ctx context.Context, courseName, major, language string) (*CourseCache, error) {
	query := `
		SELECT course_name, major, language, mooc_courses, textbooks, updated_at
		FROM course_cache
		WHERE course_name = ? AND major = ? AND language = ?
	`

	start := time.Now()
	defer warnIfSlow(ctx, "GetCourseCache", start, "course_name", courseName)

	var (
		cache                   CourseCache
		moocJSON, textbooksJSON string
		updatedAt               int64
	)
	err := db.reader.QueryRowContext(ctx, db.rebind(query), courseName, major, language).Scan(
		&cache.CourseName,
		&cache.Major,
		&cache.Language,
		&moocJSON,
		&textbooksJSON,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query course cache: %w", err)
	}

	if err := json.Unmarshal([]byte(moocJSON), &cache.MOOCCourses); err != nil {
		return nil, fmt.Errorf("decode cached mooc courses: %w", err)
	}
	if err := json.Unmarshal([]byte(textbooksJSON), &cache.Textbooks); err != nil {
		return nil, fmt.Errorf("decode cached textbooks: %w", err)
	}
	cache.MOOCCourses = nonNil(cache.MOOCCourses)
	cache.Textbooks = nonNil(cache.Textbooks)
	cache.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return &cache, nil
}

// UpsertCourseCache inserts or replaces the row for the cache key and
// returns the stored value with its refreshed timestamp.
func (db *DB) UpsertCourseCache(ctx context.Context, cache *CourseCache) (*CourseCache, error) {
	saved := *cache
	saved.MOOCCourses = nonNil(saved.MOOCCourses)
	saved.Textbooks = nonNil(saved.Textbooks)
	saved.UpdatedAt = time.UnixMilli(time.Now().UnixMilli()).UTC()

	moocJSON, err := json.Marshal(saved.MOOCCourses)
	if err != nil {
		return nil, fmt.Errorf("encode mooc courses: %w", err)
	}
	textbooksJSON, err := json.Marshal(saved.Textbooks)
	if err != nil {
		return nil, fmt.Errorf("encode textbooks: %w", err)
	}

	query := `
		INSERT INTO course_cache (course_name, major, language, mooc_courses, textbooks, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_name, major, language) DO UPDATE SET
			mooc_courses = excluded.mooc_courses,
			textbooks = excluded.textbooks,
			updated_at = excluded.updated_at
	`

	start := time.Now()
	defer warnIfSlow(ctx, "UpsertCourseCache", start, "course_name", saved.CourseName)

	_, err = db.writer.ExecContext(ctx, db.rebind(query),
		saved.CourseName,
		saved.Major,
		saved.Language,
		string(moocJSON),
		string(textbooksJSON),
		saved.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save course cache",
			"course_name", saved.CourseName,
			"error", err)
		return nil, fmt.Errorf("upsert course cache: %w", err)
	}
	return &saved, nil
}

// CountCourseCaches returns the number of cache rows.
func (db *DB) CountCourseCaches(ctx context.Context) (int, error) {
	return db.count(ctx, "course_cache")
}

// Helper functions

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*LearningPathRecord, error) {
	var (
		record               LearningPathRecord
		coursesJSON          string
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&record.ID,
		&record.Major,
		&coursesJSON,
		&record.Votes,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	courses, err := decodeCourses(coursesJSON)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", record.ID, err)
	}
	record.Courses = courses
	record.CreatedAt = time.UnixMilli(createdAt).UTC()
	record.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &record, nil
}

// count returns the row count of a fixed, trusted table name.
func (db *DB) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := db.reader.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
