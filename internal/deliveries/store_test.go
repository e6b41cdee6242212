package deliveries

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBatchInsert(t *testing.T) {
	id := uuid.New()
	at := time.Date(2022, 4, 12, 15, 31, 50, 0, time.UTC)

	sql, args := buildBatchInsert([]Record{
		{ID: id, EventID: "evt-1", EventType: "video.asset.created", Outcome: OutcomeRelayed, Verified: true, Notified: true, ReceivedAt: at},
		{Outcome: OutcomeRejectedSignature},
	})

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO webhook_deliveries (id, request_id"))
	assert.Contains(t, sql, "($1, $2, $3, $4, $5, $6, $7, $8, $9), ($10, $11")
	require.Len(t, args, 18)

	assert.Equal(t, id, args[0])
	assert.Equal(t, "relayed", args[4])
	assert.Equal(t, at, args[8])

	generated, ok := args[9].(uuid.UUID)
	require.True(t, ok)
	assert.NotEqual(t, uuid.Nil, generated)
	assert.Equal(t, "rejected_signature", args[13])
	assert.False(t, args[17].(time.Time).IsZero())
}

func TestStore_InsertBatchEmptyIsNoop(t *testing.T) {
	db := &mockDB{}
	require.NoError(t, NewStore().InsertBatch(context.Background(), db, nil))

	execs, _ := db.counts()
	assert.Zero(t, execs)
}

func TestStore_DeleteOlderThanRequiresLimit(t *testing.T) {
	_, err := NewStore().DeleteOlderThan(context.Background(), &mockDB{}, time.Now(), 0)
	require.Error(t, err)
}
