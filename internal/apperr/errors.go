// Package apperr defines the failure taxonomy surfaced by the reply pipeline.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindAcquisition          Kind = "ACQUISITION_ERROR"
	KindTranscription        Kind = "TRANSCRIPTION_ERROR"
	KindTranscriptionTimeout Kind = "TRANSCRIPTION_TIMEOUT"
	KindClassification       Kind = "CLASSIFICATION_ERROR"
	KindProvider             Kind = "PROVIDER_ERROR"
	KindStorage              Kind = "STORAGE_ERROR"
	KindPipelineTimeout      Kind = "PIPELINE_TIMEOUT"
)

// Error is a typed pipeline failure. ChatID identifies the user-facing chat
// the failure belongs to; it is zero until the orchestrator attaches it.
type Error struct {
	Kind   Kind
	ChatID int64
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithChat returns a copy of err carrying chatID. Errors that are not
// *Error are returned unchanged.
func WithChat(err error, chatID int64) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	cp := *e
	cp.ChatID = chatID
	return &cp
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// transientError marks a provider failure that may succeed on retry.
type transientError struct {
	err error
}

func (t transientError) Error() string { return t.err.Error() }
func (t transientError) Unwrap() error { return t.err }

// Transient wraps err so IsRetryable reports true for it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsRetryable reports whether err was marked transient. Context
// cancellation is never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t transientError
	return errors.As(err, &t)
}
