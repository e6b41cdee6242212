package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valinor-ai/muxrelay/internal/relay"
)

func TestIsPermanentNotifierHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, true},
		{http.StatusRequestTimeout, false},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusServiceUnavailable, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isPermanentNotifierHTTPStatus(tt.status), "status %d", tt.status)
	}
}

func TestParseRetryAfterDuration(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	delay, ok := parseRetryAfterDuration("30", now)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, delay)

	delay, ok = parseRetryAfterDuration(now.Add(90*time.Second).Format(http.TimeFormat), now)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, delay)

	for _, value := range []string{"", "0", "-5", "soon", now.Add(-time.Minute).Format(http.TimeFormat)} {
		_, ok := parseRetryAfterDuration(value, now)
		assert.False(t, ok, "value %q", value)
	}
}

func TestClassifyNotifierHTTPStatus(t *testing.T) {
	now := time.Now()

	err := classifyNotifierHTTPStatus("telegram", http.StatusForbidden, "", "", now)
	assert.True(t, relay.IsPermanentError(err))
	assert.EqualError(t, err, "telegram send failed: status 403: Forbidden")

	err = classifyNotifierHTTPStatus("telegram", http.StatusTooManyRequests, "slow down", "12", now)
	assert.False(t, relay.IsPermanentError(err))
	delay, ok := relay.RetryAfter(err)
	assert.True(t, ok)
	assert.Equal(t, 12*time.Second, delay)

	err = classifyNotifierHTTPStatus("telegram", http.StatusInternalServerError, "boom", "", now)
	assert.False(t, relay.IsPermanentError(err))
	_, ok = relay.RetryAfter(err)
	assert.False(t, ok)
}
