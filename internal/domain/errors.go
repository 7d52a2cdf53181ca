package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/windoze95/amitbot-api/internal/apperr"
)

// ErrNotFound means the provider answered but had no data for the query.
var ErrNotFound = errors.New("no data found")

// notFound wraps ErrNotFound with what was looked up.
func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// classifyStatus turns a non-200 HTTP status into an error. Rate limiting
// and server errors are transient.
func classifyStatus(provider string, status int, body []byte) error {
	err := fmt.Errorf("%s returned status %d: %s", provider, status, truncate(string(body), 200))
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s returned status %d: %w", provider, status, ErrNotFound)
	case status == http.StatusTooManyRequests, status >= 500:
		return apperr.Transient(err)
	default:
		return err
	}
}

// classifyTransportError marks network failures transient, except when the
// caller's context ended.
func classifyTransportError(provider string, err error) error {
	wrapped := fmt.Errorf("%s request failed: %w", provider, err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapped
	}
	return apperr.Transient(wrapped)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
