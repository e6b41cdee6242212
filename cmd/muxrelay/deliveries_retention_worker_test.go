package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/muxrelay/internal/deliveries"
	"github.com/valinor-ai/muxrelay/internal/platform/config"
)

type deleteQuerier struct {
	mu      sync.Mutex
	results []int64
	cutoffs []time.Time
	err     error
}

func (q *deleteQuerier) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return pgconn.CommandTag{}, q.err
	}
	q.cutoffs = append(q.cutoffs, args[0].(time.Time))
	var n int64
	if len(q.results) > 0 {
		n, q.results = q.results[0], q.results[1:]
	}
	return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil
}

func (q *deleteQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q *deleteQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestBuildDeliveryRetentionWorker(t *testing.T) {
	db := &deleteQuerier{}

	assert.Nil(t, buildDeliveryRetentionWorker(nil, config.DeliveriesConfig{Enabled: true, RetentionDays: 1}))
	assert.Nil(t, buildDeliveryRetentionWorker(db, config.DeliveriesConfig{RetentionDays: 1}))
	assert.Nil(t, buildDeliveryRetentionWorker(db, config.DeliveriesConfig{Enabled: true}))

	w := buildDeliveryRetentionWorker(db, config.DeliveriesConfig{Enabled: true, RetentionDays: 7})
	require.NotNil(t, w)
	assert.Equal(t, 7*24*time.Hour, w.retention)
	assert.Equal(t, defaultRetentionCleanupInterval, w.interval)
	assert.Equal(t, defaultRetentionCleanupBatchSize, w.batchSize)
}

func TestDeliveryRetentionWorker_SweepDeletesInBatches(t *testing.T) {
	db := &deleteQuerier{results: []int64{2, 2, 1}}
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	w := &deliveryRetentionWorker{
		db:        db,
		store:     deliveries.NewStore(),
		retention: 24 * time.Hour,
		interval:  time.Hour,
		batchSize: 2,
		now:       func() time.Time { return now },
	}

	w.sweep(context.Background())

	require.Len(t, db.cutoffs, 3)
	for _, cutoff := range db.cutoffs {
		assert.Equal(t, now.Add(-24*time.Hour), cutoff)
	}
}

func TestDeliveryRetentionWorker_SweepStopsOnError(t *testing.T) {
	db := &deleteQuerier{err: fmt.Errorf("connection reset")}
	w := &deliveryRetentionWorker{
		db:        db,
		store:     deliveries.NewStore(),
		retention: time.Hour,
		interval:  time.Hour,
		batchSize: 10,
	}

	assert.NotPanics(t, func() { w.sweep(context.Background()) })
	assert.Empty(t, db.cutoffs)
}

func TestDeliveryRetentionWorker_RunStopsOnCancel(t *testing.T) {
	db := &deleteQuerier{}
	w := buildDeliveryRetentionWorker(db, config.DeliveriesConfig{
		Enabled:                  true,
		RetentionDays:            1,
		RetentionIntervalSeconds: 3600,
	})
	require.NotNil(t, w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		db.mu.Lock()
		defer db.mu.Unlock()
		return len(db.cutoffs) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("retention worker did not stop")
	}
}

func TestDeliveryRetentionWorker_NilRunIsNoop(t *testing.T) {
	var w *deliveryRetentionWorker
	assert.NoError(t, w.Run(context.Background()))
}
