package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valinor-ai/muxrelay/internal/platform/middleware"
)

func TestRequestID_GeneratesUUID(t *testing.T) {
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/mux-endpoint", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mux-delivery-123", middleware.GetRequestID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/mux-endpoint", nil)
	req.Header.Set("X-Request-ID", "mux-delivery-123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, "mux-delivery-123", w.Header().Get("X-Request-ID"))
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}

func TestRequestID_ReplacesUnsafeInboundHeader(t *testing.T) {
	tests := map[string]string{
		"too long":      strings.Repeat("a", middleware.MaxRequestIDLength+1),
		"whitespace":    "mux delivery",
		"control chars": "abc\x1b[31m",
		"quotes":        `abc"},"verified":true`,
		"non-ascii":     "délivrance",
	}

	for name, inbound := range tests {
		t.Run(name, func(t *testing.T) {
			var seen string
			handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/mux-endpoint", nil)
			req.Header.Set(middleware.RequestIDHeader, inbound)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.NotEqual(t, inbound, seen)
			_, err := uuid.Parse(seen)
			require.NoError(t, err)
			assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}

func TestRequestID_AcceptsMaxLength(t *testing.T) {
	inbound := strings.Repeat("a", middleware.MaxRequestIDLength)
	var seen string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/mux-endpoint", nil)
	req.Header.Set(middleware.RequestIDHeader, inbound)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, inbound, seen)
}
