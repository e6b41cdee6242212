package deliveries_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/valinor-ai/muxrelay/internal/deliveries"
	"github.com/valinor-ai/muxrelay/internal/platform/database"
)

func setupTestDB(t *testing.T) (*database.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("muxrelay_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dir, err := os.Getwd()
	require.NoError(t, err)
	migrationsPath := "file://" + filepath.Join(dir, "..", "..", "migrations")
	require.NoError(t, database.RunMigrations(connStr, migrationsPath))

	pool, err := database.Connect(ctx, connStr, 5)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestStore_InsertListAndExpire(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := deliveries.NewStore()
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := store.InsertBatch(ctx, pool, []deliveries.Record{
		{EventID: "old-1", Outcome: deliveries.OutcomeRelayed, ReceivedAt: now.Add(-48 * time.Hour)},
		{EventID: "old-2", Outcome: deliveries.OutcomeRejectedSignature, ReceivedAt: now.Add(-47 * time.Hour)},
		{EventID: "new-1", EventType: "video.asset.ready", Outcome: deliveries.OutcomeRelayed, Verified: true, Notified: true, ReceivedAt: now},
	})
	require.NoError(t, err)

	records, err := store.ListRecent(ctx, pool, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "new-1", records[0].EventID)
	assert.Equal(t, deliveries.OutcomeRelayed, records[0].Outcome)
	assert.True(t, records[0].Verified)
	assert.True(t, records[0].Notified)

	deleted, err := store.DeleteOlderThan(ctx, pool, now.Add(-24*time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	deleted, err = store.DeleteOlderThan(ctx, pool, now.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	records, err = store.ListRecent(ctx, pool, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new-1", records[0].EventID)
}

func TestAsyncLogger_PersistsRecords(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := deliveries.NewStore()
	logger := deliveries.NewAsyncLogger(pool, store, deliveries.LoggerConfig{
		BatchSize:     2,
		FlushInterval: 20 * time.Millisecond,
	})
	logger.Log(context.Background(), deliveries.Record{EventID: "evt-a", Outcome: deliveries.OutcomeRelayed})
	logger.Log(context.Background(), deliveries.Record{EventID: "evt-b", Outcome: deliveries.OutcomeNotifyFailed})
	require.NoError(t, logger.Close())

	records, err := store.ListRecent(context.Background(), pool, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
