package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valinor-ai/muxrelay/internal/platform/metrics"
	"github.com/valinor-ai/muxrelay/internal/platform/middleware"
	"github.com/valinor-ai/muxrelay/internal/relay"
)

// WebhookPath is where Mux delivers webhooks.
const WebhookPath = "/mux-endpoint"

// Dependencies holds all injected dependencies for the server.
type Dependencies struct {
	Pool         *pgxpool.Pool
	RelayHandler *relay.Handler
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	// DatabaseRequired makes /readyz fail while Pool is nil.
	DatabaseRequired bool
}

type Server struct {
	httpServer       *http.Server
	pool             *pgxpool.Pool
	databaseRequired bool
	handler          http.Handler
}

func New(addr string, deps Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		pool:             deps.Pool,
		databaseRequired: deps.DatabaseRequired,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReadiness)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
	if deps.RelayHandler != nil {
		mux.Handle("POST "+WebhookPath, http.HandlerFunc(deps.RelayHandler.HandleWebhook))
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Metrics sits directly on the mux so r.Pattern is populated.
	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = middleware.Metrics(deps.Metrics)(handler)
	}
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)

	s.handler = handler
	s.httpServer.Handler = handler

	return s
}

// Handler returns the full middleware-wrapped handler chain (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}

	slog.Info("server starting", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.pool == nil {
		if s.databaseRequired {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "database not connected",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	if err := s.pool.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database ping failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
