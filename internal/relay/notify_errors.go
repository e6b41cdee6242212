package relay

import (
	"errors"
	"time"
)

// NotifyError marks notifier failures with classification metadata.
type NotifyError struct {
	err        error
	permanent  bool
	retryAfter time.Duration
}

func (e *NotifyError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *NotifyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// NewPermanentError wraps a failure that will not succeed if repeated,
// such as a rejected bot token or unknown chat.
func NewPermanentError(err error) error {
	if err == nil {
		return nil
	}
	return &NotifyError{err: err, permanent: true}
}

// NewTransientError wraps a failure the provider asked to retry after
// retryAfter. A zero retryAfter means no hint was given.
func NewTransientError(err error, retryAfter time.Duration) error {
	if err == nil {
		return nil
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &NotifyError{err: err, retryAfter: retryAfter}
}

// IsPermanentError reports whether err represents a non-retryable failure.
func IsPermanentError(err error) bool {
	var notifyErr *NotifyError
	if !errors.As(err, &notifyErr) {
		return false
	}
	return notifyErr.permanent
}

// RetryAfter returns the provider's retry hint carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var notifyErr *NotifyError
	if !errors.As(err, &notifyErr) || notifyErr.permanent || notifyErr.retryAfter <= 0 {
		return 0, false
	}
	return notifyErr.retryAfter, true
}
