package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FileSystemDatabase(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	ctx := context.Background()
	db, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should exist")
	assert.Equal(t, dbPath, db.Path())
	assert.Equal(t, DialectSQLite, db.Dialect())

	id, existed, err := db.SaveRecord(ctx, "计算机科学", []Course{{Name: "操作系统", Description: "进程与内存"}})
	require.NoError(t, err)
	assert.False(t, existed)

	// The reader pool sees the writer's committed data.
	record, err := db.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "计算机科学", record.Major)
}

func TestNew_ReopenKeepsData(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath)
	require.NoError(t, err)
	id, _, err := db.SaveRecord(ctx, "心理学", []Course{{Name: "普通心理学", Description: "d"}})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	record, err := db.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "心理学", record.Major)
}

func TestCreateSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "live.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, _, err = db.SaveRecord(ctx, "经济学", []Course{{Name: "微观经济学", Description: "d"}})
	require.NoError(t, err)

	snapPath := filepath.Join(t.TempDir(), "snap.db")
	require.NoError(t, db.CreateSnapshot(ctx, snapPath))
	// A second snapshot to the same path replaces the first.
	require.NoError(t, db.CreateSnapshot(ctx, snapPath))

	snap, err := New(ctx, snapPath)
	require.NoError(t, err)
	defer func() { _ = snap.Close() }()

	n, err := snap.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateSnapshot_PostgresUnsupported(t *testing.T) {
	db := &DB{dialect: DialectPostgres}
	assert.ErrorIs(t, db.CreateSnapshot(context.Background(), "x.db"), ErrSnapshotUnsupported)
}

func TestRebind(t *testing.T) {
	sqlite := &DB{dialect: DialectSQLite}
	pg := &DB{dialect: DialectPostgres}

	q := "SELECT id FROM t WHERE a = ? AND b = ? LIMIT ?"
	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, "SELECT id FROM t WHERE a = $1 AND b = $2 LIMIT $3", pg.rebind(q))
	assert.Equal(t, "SELECT 1", pg.rebind("SELECT 1"))
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/data/uonline.db")
	assert.Equal(t, "/data/uonline.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)", dsn)
}

func TestPing(t *testing.T) {
	db, err := NewTestDB()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.NoError(t, db.Ping(context.Background()))
}
