package telegram

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/windoze95/amitbot-api/internal/models"
)

func decodeUpdate(t *testing.T, raw string) *Update {
	t.Helper()
	var u Update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	return &u
}

func TestInboundMessage_Text(t *testing.T) {
	u := decodeUpdate(t, `{"update_id":1,"message":{"message_id":7,"chat":{"id":42},"text":"weather in Haifa"}}`)
	now := time.Now()

	msg, ok := u.InboundMessage(now)
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.Modality() != models.ModalityText {
		t.Errorf("Modality = %v, want text", msg.Modality())
	}
	if msg.ChatID() != 42 || msg.MessageID() != 7 {
		t.Errorf("ids = %d/%d", msg.ChatID(), msg.MessageID())
	}
	if msg.RawText() != "weather in Haifa" {
		t.Errorf("RawText = %q", msg.RawText())
	}
}

func TestInboundMessage_Voice(t *testing.T) {
	u := decodeUpdate(t, `{"update_id":2,"message":{"message_id":8,"chat":{"id":42},"voice":{"file_id":"abc","duration":3,"mime_type":"audio/ogg"}}}`)

	msg, ok := u.InboundMessage(time.Now())
	if !ok {
		t.Fatal("expected a message")
	}
	voice, ok := msg.Voice()
	if !ok {
		t.Fatal("expected voice handle")
	}
	if voice.FileID != "abc" || voice.Format != "ogg" || voice.Duration != 3*time.Second {
		t.Errorf("voice = %+v", voice)
	}
	if !u.IsVoice() {
		t.Error("IsVoice should be true")
	}
}

func TestInboundMessage_AudioFileNameWins(t *testing.T) {
	u := decodeUpdate(t, `{"update_id":3,"message":{"message_id":9,"chat":{"id":1},"audio":{"file_id":"f","file_name":"note.WAV","mime_type":"audio/mpeg"}}}`)

	msg, _ := u.InboundMessage(time.Now())
	voice, _ := msg.Voice()
	if voice.Format != "wav" {
		t.Errorf("Format = %q, want wav", voice.Format)
	}
}

func TestInboundMessage_Empty(t *testing.T) {
	u := decodeUpdate(t, `{"update_id":4,"message":{"message_id":1,"chat":{"id":1},"text":"   "}}`)
	if _, ok := u.InboundMessage(time.Now()); ok {
		t.Error("blank text should not produce a message")
	}

	cb := decodeUpdate(t, `{"update_id":5,"callback_query":{"id":"q","data":"/weather","message":{"message_id":1,"chat":{"id":9}}}}`)
	if _, ok := cb.InboundMessage(time.Now()); ok {
		t.Error("callback query should not produce a message")
	}
	if cb.ChatID() != 9 {
		t.Errorf("ChatID = %d, want 9", cb.ChatID())
	}
}
