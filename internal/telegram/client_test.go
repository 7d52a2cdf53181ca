package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("TOKEN")
	c.baseURL = srv.URL
	return c
}

func TestSendMessage(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{{Text: "Weather", CallbackData: "/weather"}}}}
	if err := c.SendMessage(context.Background(), 42, "hello", markup); err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}
	if got["chat_id"] != float64(42) || got["text"] != "hello" {
		t.Errorf("payload = %v", got)
	}
	if _, ok := got["reply_markup"]; !ok {
		t.Error("reply_markup missing")
	}
}

func TestSendAudio_TruncatesCaption(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	})

	if err := c.SendAudio(context.Background(), 1, "https://example.com/a.mp3", strings.Repeat("x", 2000)); err != nil {
		t.Fatalf("SendAudio error: %v", err)
	}
	if caption, _ := got["caption"].(string); len(caption) != maxCaptionRunes {
		t.Errorf("caption length = %d, want %d", len(caption), maxCaptionRunes)
	}
}

func TestCall_RateLimitIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests"}`))
	})

	err := c.SendMessage(context.Background(), 1, "x", nil)
	if !apperr.IsRetryable(err) {
		t.Errorf("429 should be retryable, got %v", err)
	}
}

func TestCall_ForbiddenNotTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok":false,"error_code":403,"description":"bot was blocked by the user"}`))
	})

	err := c.SendMessage(context.Background(), 1, "x", nil)
	if err == nil || apperr.IsRetryable(err) {
		t.Errorf("403 should fail without retry, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getFile":
			w.Write([]byte(`{"ok":true,"result":{"file_id":"abc","file_path":"voice/file_1.oga"}}`))
		case "/file/botTOKEN/voice/file_1.oga":
			w.Write([]byte("OggS"))
		default:
			http.NotFound(w, r)
		}
	})

	data, err := c.Download(context.Background(), models.VoiceHandle{FileID: "abc"})
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if string(data) != "OggS" {
		t.Errorf("data = %q", data)
	}
}

func TestDownload_MissingFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: invalid file_id"}`))
	})

	if _, err := c.Download(context.Background(), models.VoiceHandle{FileID: "nope"}); err == nil {
		t.Error("expected error for invalid file id")
	}
}
