package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("stage: %w", New(KindProvider, "weather lookup", errors.New("502")))
	if got := KindOf(err); got != KindProvider {
		t.Errorf("KindOf() = %q, want %q", got, KindProvider)
	}
}

func TestKindOf_Plain(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}

func TestWithChat_CopiesError(t *testing.T) {
	orig := New(KindStorage, "put", errors.New("denied"))
	got := WithChat(orig, 42)

	var e *Error
	if !errors.As(got, &e) {
		t.Fatal("WithChat should return an *Error")
	}
	if e.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", e.ChatID)
	}
	if orig.ChatID != 0 {
		t.Errorf("original ChatID = %d, want 0 (must not be mutated)", orig.ChatID)
	}
}

func TestWithChat_NonTyped(t *testing.T) {
	plain := errors.New("boom")
	if got := WithChat(plain, 1); got != plain {
		t.Errorf("WithChat(plain) = %v, want same error", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"transient", Transient(errors.New("503")), true},
		{"wrapped transient", fmt.Errorf("lookup: %w", Transient(errors.New("503"))), true},
		{"deadline", context.DeadlineExceeded, false},
		{"transient deadline", Transient(context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestError_Message(t *testing.T) {
	err := New(KindTranscriptionTimeout, "transcribe", nil)
	if err.Error() != "TRANSCRIPTION_TIMEOUT: transcribe" {
		t.Errorf("Error() = %q", err.Error())
	}
}
