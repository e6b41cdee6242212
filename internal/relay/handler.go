package relay

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/valinor-ai/muxrelay/internal/deliveries"
	"github.com/valinor-ai/muxrelay/internal/mux"
	"github.com/valinor-ai/muxrelay/internal/platform/metrics"
	"github.com/valinor-ai/muxrelay/internal/platform/middleware"
	"github.com/valinor-ai/muxrelay/internal/webhook"
)

// AckMessage is returned to Mux once an event has been relayed.
const AckMessage = "Received loud and clear!"

const defaultMaxBodyBytes int64 = 1 << 20

// HandlerConfig tunes webhook handling.
type HandlerConfig struct {
	// ForwardUnverified relays events whose signature did not verify,
	// flagged verified=false, instead of rejecting them with 401.
	ForwardUnverified bool
	MaxBodyBytes      int64
}

// Handler serves the Mux webhook endpoint.
type Handler struct {
	verifier   webhook.Verifier
	notifier   Notifier
	deliveries deliveries.Logger
	metrics    *metrics.Metrics
	cfg        HandlerConfig
	now        func() time.Time
}

// NewHandler creates a relay handler. A nil notifier drops reports.
func NewHandler(verifier webhook.Verifier, notifier Notifier, cfg HandlerConfig) *Handler {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		verifier:   verifier,
		notifier:   notifier,
		deliveries: deliveries.NopLogger{},
		cfg:        cfg,
		now:        time.Now,
	}
}

// WithDeliveryLog records every delivery outcome to l.
func (h *Handler) WithDeliveryLog(l deliveries.Logger) *Handler {
	if l == nil {
		l = deliveries.NopLogger{}
	}
	h.deliveries = l
	return h
}

// WithMetrics counts delivery outcomes and notification results.
func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.metrics = m
	return h
}

// HandleWebhook handles POST /mux-endpoint.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	receivedAt := h.now().UTC()
	correlationID := middleware.GetRequestID(ctx)
	if correlationID == "" {
		correlationID = "mux-" + strconv.FormatInt(receivedAt.UnixNano(), 10)
	}

	record := deliveries.Record{
		RequestID:  correlationID,
		ReceivedAt: receivedAt,
	}
	finish := func(outcome deliveries.Outcome, err error) {
		record.Outcome = outcome
		if err != nil {
			record.Error = err.Error()
		}
		h.deliveries.Log(ctx, record)
		h.metrics.ObserveWebhook(string(outcome))
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		finish(deliveries.OutcomeInvalidBody, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":          "bad request body",
			"correlation_id": correlationID,
		})
		return
	}

	verifyErr := h.verifier.Verify(r.Header, body, receivedAt)
	switch {
	case verifyErr == nil:
		record.Verified = true
	case errors.Is(verifyErr, webhook.ErrMissingSignature):
		finish(deliveries.OutcomeMissingSignature, verifyErr)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":          "bad request",
			"correlation_id": correlationID,
		})
		return
	case !h.cfg.ForwardUnverified:
		finish(deliveries.OutcomeRejectedSignature, verifyErr)
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":          "invalid signature",
			"correlation_id": correlationID,
		})
		return
	default:
		slog.Warn("relaying unverified mux webhook", "correlation_id", correlationID)
	}

	event, err := mux.ParseEvent(body)
	if err != nil {
		finish(deliveries.OutcomeInvalidEvent, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":          "bad request",
			"correlation_id": correlationID,
		})
		return
	}
	record.EventID = event.ID
	record.EventType = event.Type

	report := mux.Report{Data: event, Verified: record.Verified}
	if err := h.notifier.Notify(ctx, report); err != nil {
		h.metrics.ObserveNotification("failed")
		slog.Error("relaying mux event failed",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type,
			"permanent", IsPermanentError(err),
			"correlation_id", correlationID,
		)
		finish(deliveries.OutcomeNotifyFailed, err)
		writeNotifyError(w, err, correlationID)
		return
	}
	h.metrics.ObserveNotification("sent")
	record.Notified = true
	finish(deliveries.OutcomeRelayed, nil)

	slog.Info("mux event relayed",
		"event_id", event.ID,
		"event_type", event.Type,
		"verified", record.Verified,
		"correlation_id", correlationID,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        AckMessage,
		"verified":       record.Verified,
		"correlation_id": correlationID,
	})
}

// writeNotifyError answers 503 for transient failures so Mux redelivers,
// honoring the provider's retry hint, and 502 for permanent ones.
func writeNotifyError(w http.ResponseWriter, err error, correlationID string) {
	status := http.StatusServiceUnavailable
	if IsPermanentError(err) {
		status = http.StatusBadGateway
	} else if delay, ok := RetryAfter(err); ok {
		seconds := int64((delay + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	}
	writeJSON(w, status, map[string]string{
		"error":          "relaying webhook failed",
		"correlation_id": correlationID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
