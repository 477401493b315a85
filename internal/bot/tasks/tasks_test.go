package tasks

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chmasta/internal/config"
	"github.com/edgard/chmasta/internal/database"
)

func newDeps(t *testing.T, retention time.Duration, now time.Time) TaskDeps {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	return TaskDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  database.NewStore(db, 100, nil),
		Config: &config.Config{Audit: config.AuditConfig{Retention: retention}},
		Clock:  clockwork.NewFakeClockAt(now),
	}
}

func TestRegisterAllTasks(t *testing.T) {
	deps := newDeps(t, time.Hour, time.Now())
	tasks := RegisterAllTasks(deps)

	assert.Len(t, tasks, 2)
	assert.Contains(t, tasks, "sql_maintenance")
	assert.Contains(t, tasks, "audit_retention")
	for name := range config.DefaultTasks {
		assert.Contains(t, tasks, name, "every default task has an implementation")
	}

	require.NoError(t, tasks["sql_maintenance"](context.Background()))
}

func TestAuditRetention(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	deps := newDeps(t, 24*time.Hour, now)

	for _, age := range []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour} {
		entry := database.NewLogEntry(database.ActionSetTimer, 100, -1001, "5")
		entry.CreatedAt = now.Add(-age)
		require.NoError(t, deps.Store.AppendLog(ctx, entry))
	}

	require.NoError(t, newAuditRetentionTask(deps)(ctx))

	logs, err := deps.Store.RecentLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].CreatedAt.Equal(now.Add(-time.Hour)))
}

func TestAuditRetentionDisabled(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	deps := newDeps(t, 0, now)

	entry := database.NewLogEntry(database.ActionSetTimer, 100, -1001, "5")
	entry.CreatedAt = now.Add(-365 * 24 * time.Hour)
	require.NoError(t, deps.Store.AppendLog(ctx, entry))

	require.NoError(t, newAuditRetentionTask(deps)(ctx))

	logs, err := deps.Store.RecentLogs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestSQLMaintenanceStopsOnCancelledContext(t *testing.T) {
	deps := newDeps(t, time.Hour, time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newSQLMaintenanceTask(deps)(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
