// Package deliveries keeps an optional Postgres log of received webhooks.
package deliveries

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome is the disposition of a single webhook delivery.
type Outcome string

const (
	OutcomeRelayed           Outcome = "relayed"
	OutcomeRejectedSignature Outcome = "rejected_signature"
	OutcomeMissingSignature  Outcome = "missing_signature"
	OutcomeInvalidBody       Outcome = "invalid_body"
	OutcomeInvalidEvent      Outcome = "invalid_event"
	OutcomeNotifyFailed      Outcome = "notify_failed"
)

// Record is one row of the delivery log.
type Record struct {
	ID         uuid.UUID `json:"id"`
	RequestID  string    `json:"request_id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Outcome    Outcome   `json:"outcome"`
	Verified   bool      `json:"verified"`
	Notified   bool      `json:"notified"`
	Error      string    `json:"error,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Logger records deliveries. Log is fire-and-forget.
type Logger interface {
	Log(ctx context.Context, record Record)
	Close() error
}

// NopLogger is used when the delivery log is disabled.
type NopLogger struct{}

func (NopLogger) Log(context.Context, Record) {}
func (NopLogger) Close() error                { return nil }
