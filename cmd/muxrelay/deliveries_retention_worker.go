package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/valinor-ai/muxrelay/internal/deliveries"
	"github.com/valinor-ai/muxrelay/internal/platform/config"
	"github.com/valinor-ai/muxrelay/internal/platform/database"
)

const (
	defaultRetentionCleanupInterval  = time.Hour
	defaultRetentionCleanupBatchSize = 500
)

type deliveryRetentionWorker struct {
	db        database.Querier
	store     *deliveries.Store
	retention time.Duration
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func buildDeliveryRetentionWorker(db database.Querier, cfg config.DeliveriesConfig) *deliveryRetentionWorker {
	if db == nil || !cfg.Enabled || cfg.RetentionDays <= 0 {
		return nil
	}

	interval := time.Duration(cfg.RetentionIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultRetentionCleanupInterval
	}

	batchSize := cfg.RetentionBatchSize
	if batchSize <= 0 {
		batchSize = defaultRetentionCleanupBatchSize
	}

	return &deliveryRetentionWorker{
		db:        db,
		store:     deliveries.NewStore(),
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (w *deliveryRetentionWorker) Run(ctx context.Context) error {
	if w == nil || w.db == nil || w.store == nil {
		return nil
	}

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *deliveryRetentionWorker) sweep(ctx context.Context) {
	now := time.Now().UTC()
	if w.now != nil {
		now = w.now().UTC()
	}
	cutoff := now.Add(-w.retention)

	totalDeleted := 0
	for ctx.Err() == nil {
		deleted, err := w.store.DeleteOlderThan(ctx, w.db, cutoff, w.batchSize)
		if err != nil {
			slog.Error("delivery retention cleanup failed", "error", err)
			return
		}
		totalDeleted += deleted
		if deleted < w.batchSize {
			break
		}
	}

	if totalDeleted > 0 {
		slog.Info("delivery retention cleanup completed",
			"deleted_rows", totalDeleted,
			"cutoff", cutoff,
		)
	}
}
