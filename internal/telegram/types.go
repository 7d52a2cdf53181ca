// Package telegram is a minimal Bot API client plus the update types the
// webhook receives.
package telegram

import (
	"strings"
	"time"

	"github.com/windoze95/amitbot-api/internal/models"
)

// Update is an incoming webhook update. Only the fields the bot reads are
// declared.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
	Voice     *Voice `json:"voice,omitempty"`
	Audio     *Audio `json:"audio,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Voice struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
}

type Audio struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	Message *Message `json:"message,omitempty"`
}

// InlineKeyboardMarkup is the reply_markup for inline buttons.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// ChatID returns the chat the update belongs to, or 0.
func (u *Update) ChatID() int64 {
	switch {
	case u.Message != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return u.CallbackQuery.Message.Chat.ID
	default:
		return 0
	}
}

// IsVoice reports whether the update carries a voice note or audio file.
func (u *Update) IsVoice() bool {
	return u.Message != nil && (u.Message.Voice != nil || u.Message.Audio != nil)
}

// InboundMessage normalizes a message update. It returns false for updates
// with neither text nor audio.
func (u *Update) InboundMessage(receivedAt time.Time) (models.InboundMessage, bool) {
	m := u.Message
	if m == nil {
		return models.InboundMessage{}, false
	}

	var (
		msg models.InboundMessage
		err error
	)
	switch {
	case m.Voice != nil:
		msg, err = models.NewVoiceMessage(m.Chat.ID, m.MessageID, models.VoiceHandle{
			FileID:   m.Voice.FileID,
			Format:   formatFromMime(m.Voice.MimeType, "", "ogg"),
			MimeType: m.Voice.MimeType,
			Duration: time.Duration(m.Voice.Duration) * time.Second,
		}, receivedAt)
	case m.Audio != nil:
		msg, err = models.NewVoiceMessage(m.Chat.ID, m.MessageID, models.VoiceHandle{
			FileID:   m.Audio.FileID,
			Format:   formatFromMime(m.Audio.MimeType, m.Audio.FileName, "mp3"),
			MimeType: m.Audio.MimeType,
			Duration: time.Duration(m.Audio.Duration) * time.Second,
		}, receivedAt)
	case strings.TrimSpace(m.Text) != "":
		msg, err = models.NewTextMessage(m.Chat.ID, m.MessageID, m.Text, receivedAt)
	default:
		return models.InboundMessage{}, false
	}
	if err != nil {
		return models.InboundMessage{}, false
	}
	return msg, true
}

// formatFromMime picks a file extension from the file name or mime type.
func formatFromMime(mimeType, fileName, fallback string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		return strings.ToLower(fileName[i+1:])
	}
	switch strings.ToLower(mimeType) {
	case "audio/ogg", "audio/opus":
		return "ogg"
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "m4a"
	case "audio/flac":
		return "flac"
	case "audio/webm":
		return "webm"
	default:
		return fallback
	}
}
