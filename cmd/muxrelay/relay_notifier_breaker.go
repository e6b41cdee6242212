package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/valinor-ai/muxrelay/internal/mux"
	"github.com/valinor-ai/muxrelay/internal/platform/config"
	"github.com/valinor-ai/muxrelay/internal/platform/metrics"
	"github.com/valinor-ai/muxrelay/internal/relay"
)

const (
	defaultBreakerMaxRequests = 3
	defaultBreakerInterval    = 10 * time.Second
	defaultBreakerTimeout     = 60 * time.Second
)

// breakerNotifier stops calling the downstream notifier after repeated
// failures until the breaker timeout elapses. State changes are exported
// as the notifier_breaker_state gauge.
type breakerNotifier struct {
	next    relay.Notifier
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func newBreakerNotifier(name string, next relay.Notifier, cfg config.BreakerConfig, m *metrics.Metrics) *breakerNotifier {
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = defaultBreakerMaxRequests
	}
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultBreakerInterval
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("notifier circuit breaker state changed",
				"notifier", name,
				"from", from.String(),
				"to", to.String(),
			)
			m.SetBreakerState(name, int(to))
		},
	}
	m.SetBreakerState(name, int(gobreaker.StateClosed))

	return &breakerNotifier{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(settings),
		timeout: timeout,
	}
}

func (b *breakerNotifier) Notify(ctx context.Context, report mux.Report) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Notify(ctx, report)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return relay.NewTransientError(err, b.timeout)
	}
	return err
}
