// Package relay receives Mux webhooks over HTTP and forwards a report of
// each event to a downstream Notifier.
package relay

import (
	"context"

	"github.com/valinor-ai/muxrelay/internal/mux"
)

// Notifier delivers a report to the downstream channel. Implementations
// signal failure classification with NewPermanentError/NewTransientError.
type Notifier interface {
	Notify(ctx context.Context, report mux.Report) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, report mux.Report) error

func (f NotifierFunc) Notify(ctx context.Context, report mux.Report) error {
	return f(ctx, report)
}

// NopNotifier drops every report.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, mux.Report) error { return nil }
