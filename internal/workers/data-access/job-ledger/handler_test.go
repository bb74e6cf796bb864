// internal/workers/data-access/job-ledger/handler_test.go
package jobledger

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"easyapply/internal/common/config"
	apperrors "easyapply/internal/common/errors"
	"easyapply/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(dir string) *Config {
	return &Config{
		CSVFile:         filepath.Join(dir, "job_data.csv"),
		MirrorFiles:     []string{filepath.Join(dir, "artifacts", "job_data.csv")},
		AppliedJobsFile: filepath.Join(dir, "applied_jobs.txt"),
		AppliedSetMode:  config.AppliedSetFile,
		RedisKey:        "autoapply:applied_jobs",
		PostgresTable:   "applied_jobs",
		ESIndex:         "applied-jobs",
		SinkTimeout:     time.Second,
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Name() string { return "failing" }

func (f *failingSink) Record(context.Context, Entry) error {
	f.calls++
	return errors.New("sink down")
}

// ==========================
// Tracker Tests
// ==========================

func TestTracker_RecordSubmission(t *testing.T) {
	ctx := context.Background()
	cfg := createTestConfig(t.TempDir())

	tr, err := Open(ctx, cfg, Backends{}, logger.NewTestLogger(t))
	require.NoError(t, err)

	applied, err := tr.IsApplied(ctx, "123")
	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, tr.RecordSubmission(ctx, Entry{JobID: "123", JobTitle: "Go Developer", Company: "Acme"}))

	applied, err = tr.IsApplied(ctx, "123")
	require.NoError(t, err)
	assert.True(t, applied)

	entries, err := ReadAll(cfg.CSVFile)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].DateApplied.IsZero())

	mirrored, err := ReadAll(cfg.MirrorFiles[0])
	require.NoError(t, err)
	assert.Len(t, mirrored, 1)

	// the flat file only changes on Flush
	_, err = os.Stat(cfg.AppliedJobsFile)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, tr.Flush(ctx))
	raw, err := os.ReadFile(cfg.AppliedJobsFile)
	require.NoError(t, err)
	assert.Equal(t, "123\n", string(raw))
}

func TestTracker_SinkFailureDoesNotFailSubmission(t *testing.T) {
	ctx := context.Background()
	cfg := createTestConfig(t.TempDir())
	set, err := LoadFileSet(cfg.AppliedJobsFile)
	require.NoError(t, err)

	sink := &failingSink{}
	tr := NewTracker(cfg, set, NewCSVLedger(cfg.CSVFile), logger.NewTestLogger(t), sink)

	require.NoError(t, tr.RecordSubmission(ctx, testEntry("1")))
	assert.Equal(t, 1, sink.calls)

	ok, _ := tr.IsApplied(ctx, "1")
	assert.True(t, ok)
}

func TestTracker_PrimaryLedgerFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	cfg := createTestConfig(dir)
	set, err := LoadFileSet(cfg.AppliedJobsFile)
	require.NoError(t, err)
	tr := NewTracker(cfg, set, NewCSVLedger(filepath.Join(blocker, "job_data.csv")), logger.NewNoOpLogger())

	err = tr.RecordSubmission(ctx, testEntry("1"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLedgerWriteFailed))
}

func TestTracker_ReconcileFromLedger(t *testing.T) {
	ctx := context.Background()
	cfg := createTestConfig(t.TempDir())

	// a crashed run: ledger has 1 and 2, flat file only has 1
	l := NewCSVLedger(cfg.CSVFile)
	require.NoError(t, l.Append(testEntry("1")))
	require.NoError(t, l.Append(testEntry("2")))
	require.NoError(t, os.WriteFile(cfg.AppliedJobsFile, []byte("1\n"), 0o644))

	tr, err := Open(ctx, cfg, Backends{}, logger.NewTestLogger(t))
	require.NoError(t, err)

	ok, _ := tr.IsApplied(ctx, "2")
	assert.True(t, ok)
	n, _ := tr.Len(ctx)
	assert.Equal(t, 2, n)

	raw, err := os.ReadFile(cfg.AppliedJobsFile)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(raw))

	added, err := tr.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)
}

func TestOpen_RedisMode(t *testing.T) {
	ctx := context.Background()
	cfg := createTestConfig(t.TempDir())
	cfg.AppliedSetMode = config.AppliedSetRedis

	_, err := Open(ctx, cfg, Backends{}, logger.NewNoOpLogger())
	assert.ErrorIs(t, err, ErrNoRedisClient)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	tr, err := Open(ctx, cfg, Backends{Redis: client}, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, tr.RecordSubmission(ctx, testEntry("77")))

	ok, err := mr.SIsMember(cfg.RedisKey, "77")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpen_WithSinks(t *testing.T) {
	ctx := context.Background()
	cfg := createTestConfig(t.TempDir())

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "applied_jobs"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "applied_jobs"`).WillReturnResult(sqlmock.NewResult(0, 1))

	var seen []string
	es := newESServer(t, http.StatusCreated, &seen)

	tr, err := Open(ctx, cfg, Backends{DB: db, Elasticsearch: es}, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, tr.RecordSubmission(ctx, testEntry("5")))

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, seen, 1)
}
