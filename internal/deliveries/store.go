package deliveries

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valinor-ai/muxrelay/internal/platform/database"
)

const recordColumns = 9

// Store handles delivery log persistence.
// Methods accept database.Querier so they can run inside a transaction.
type Store struct{}

// NewStore creates a deliveries Store.
func NewStore() *Store {
	return &Store{}
}

// InsertBatch writes a batch of records in one statement.
func (s *Store) InsertBatch(ctx context.Context, db database.Querier, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	sql, args := buildBatchInsert(records)
	if _, err := db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("inserting webhook deliveries: %w", err)
	}
	return nil
}

// DeleteOlderThan removes up to limit records received before cutoff and
// returns how many were deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, db database.Querier, cutoff time.Time, limit int) (int, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("delete limit must be positive")
	}
	tag, err := db.Exec(ctx,
		`DELETE FROM webhook_deliveries
		 WHERE id IN (
			SELECT id FROM webhook_deliveries
			WHERE received_at < $1
			ORDER BY received_at ASC
			LIMIT $2
		 )`,
		cutoff, limit,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired webhook deliveries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListRecent returns the newest records first.
func (s *Store) ListRecent(ctx context.Context, db database.Querier, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(ctx,
		`SELECT id, request_id, event_id, event_type, outcome, verified, notified, error, received_at
		 FROM webhook_deliveries
		 ORDER BY received_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing webhook deliveries: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var outcome string
		if err := rows.Scan(
			&r.ID,
			&r.RequestID,
			&r.EventID,
			&r.EventType,
			&outcome,
			&r.Verified,
			&r.Notified,
			&r.Error,
			&r.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning webhook delivery: %w", err)
		}
		r.Outcome = Outcome(outcome)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhook deliveries: %w", err)
	}
	return records, nil
}

// buildBatchInsert constructs a multi-row INSERT statement. Records without
// an ID or timestamp get one here.
func buildBatchInsert(records []Record) (string, []any) {
	const cols = "(id, request_id, event_id, event_type, outcome, verified, notified, error, received_at)"
	placeholders := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*recordColumns)

	for i, r := range records {
		base := i * recordColumns
		marks := make([]string, recordColumns)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

		id := r.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		receivedAt := r.ReceivedAt
		if receivedAt.IsZero() {
			receivedAt = time.Now().UTC()
		}

		args = append(args, id, r.RequestID, r.EventID, r.EventType, string(r.Outcome), r.Verified, r.Notified, r.Error, receivedAt)
	}

	sql := fmt.Sprintf("INSERT INTO webhook_deliveries %s VALUES %s", cols, strings.Join(placeholders, ", "))
	return sql, args
}
