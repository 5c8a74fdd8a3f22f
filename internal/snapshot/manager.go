// Package snapshot backs the SQLite database up to R2 and restores it on a
// fresh volume.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/garyellow/uonline/internal/config"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/r2client"
)

// Store is the object storage a Manager talks to.
type Store interface {
	UploadFile(ctx context.Context, key, srcPath string) (string, error)
	DownloadFile(ctx context.Context, key, dstPath string) (string, error)
}

// Source produces a consistent copy of the live database.
type Source interface {
	CreateSnapshot(ctx context.Context, destPath string) error
}

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey string        // R2 object key (e.g., "snapshots/uonline.db.zst")
	Interval    time.Duration // Upload period for Run
	TempDir     string        // Directory for temporary copies
	Metrics     *metrics.Metrics
}

// Manager uploads and restores database snapshots.
type Manager struct {
	store   Store
	config  Config
	mu      sync.Mutex // Serializes uploads
	etag    string
	metrics *metrics.Metrics
}

// New creates a new snapshot manager.
func New(store Store, cfg Config) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.SnapshotKey == "" {
		cfg.SnapshotKey = config.DefaultR2SnapshotKey
	}
	return &Manager{
		store:   store,
		config:  cfg,
		metrics: cfg.Metrics,
	}
}

// Restore downloads the latest snapshot to dbPath when no database file
// exists there yet. It reports whether a snapshot was restored; a missing
// snapshot is not an error.
func (m *Manager) Restore(ctx context.Context, dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); err == nil {
		slog.InfoContext(ctx, "Local database present, skipping snapshot restore", "path", dbPath)
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat database: %w", err)
	}

	start := time.Now()
	etag, err := m.store.DownloadFile(ctx, m.config.SnapshotKey, dbPath)
	if errors.Is(err, r2client.ErrNotFound) {
		slog.InfoContext(ctx, "No snapshot in R2, starting with an empty database",
			"snapshot_key", m.config.SnapshotKey)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restore snapshot: %w", err)
	}

	m.mu.Lock()
	m.etag = etag
	m.mu.Unlock()

	slog.InfoContext(ctx, "Database restored from snapshot",
		"snapshot_key", m.config.SnapshotKey,
		"etag", etag,
		"duration", time.Since(start))
	return true, nil
}

// Upload copies the live database and uploads the copy compressed.
func (m *Manager) Upload(ctx context.Context, src Source) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	copyPath := filepath.Join(m.config.TempDir, fmt.Sprintf("uonline_snapshot_%d.db", time.Now().UnixNano()))
	if err := src.CreateSnapshot(ctx, copyPath); err != nil {
		m.metrics.RecordSnapshotUpload("error")
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer func() { _ = os.Remove(copyPath) }()

	etag, err := m.store.UploadFile(ctx, m.config.SnapshotKey, copyPath)
	if err != nil {
		m.metrics.RecordSnapshotUpload("error")
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	m.etag = etag
	m.metrics.RecordSnapshotUpload("success")

	slog.InfoContext(ctx, "Snapshot uploaded",
		"snapshot_key", m.config.SnapshotKey,
		"etag", etag,
		"duration", time.Since(start))
	return etag, nil
}

// Run uploads a snapshot every Interval until ctx is done. Each upload is
// bounded by config.SnapshotUploadTimeout.
func (m *Manager) Run(ctx context.Context, src Source) {
	if m.config.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Snapshot uploads scheduled",
		"interval", m.config.Interval,
		"snapshot_key", m.config.SnapshotKey)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uploadCtx, cancel := context.WithTimeout(ctx, config.SnapshotUploadTimeout)
			if _, err := m.Upload(uploadCtx, src); err != nil && ctx.Err() == nil {
				slog.WarnContext(ctx, "Scheduled snapshot upload failed", "error", err)
			}
			cancel()
		}
	}
}

// CurrentETag returns the ETag of the last restored or uploaded snapshot.
func (m *Manager) CurrentETag() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.etag
}
