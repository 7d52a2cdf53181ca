package models

import (
	"fmt"
	"time"
)

// Modality is the input or output form of a message.
type Modality int

const (
	ModalityText Modality = iota
	ModalityVoice
)

func (m Modality) String() string {
	switch m {
	case ModalityText:
		return "text"
	case ModalityVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// VoiceHandle points at a voice recording held by the chat platform.
type VoiceHandle struct {
	FileID   string
	Format   string // file extension without dot, e.g. "ogg"
	MimeType string
	Duration time.Duration
}

// InboundMessage is a normalized chat message. Construct it with
// NewTextMessage or NewVoiceMessage; it is read-only afterwards.
type InboundMessage struct {
	modality   Modality
	chatID     int64
	messageID  int64
	rawText    string
	voice      *VoiceHandle
	receivedAt time.Time
}

// NewTextMessage builds a text-modality message.
func NewTextMessage(chatID, messageID int64, text string, receivedAt time.Time) (InboundMessage, error) {
	if text == "" {
		return InboundMessage{}, fmt.Errorf("text message for chat %d has no text", chatID)
	}
	return InboundMessage{
		modality:   ModalityText,
		chatID:     chatID,
		messageID:  messageID,
		rawText:    text,
		receivedAt: receivedAt,
	}, nil
}

// NewVoiceMessage builds a voice-modality message.
func NewVoiceMessage(chatID, messageID int64, voice VoiceHandle, receivedAt time.Time) (InboundMessage, error) {
	if voice.FileID == "" {
		return InboundMessage{}, fmt.Errorf("voice message for chat %d has no file id", chatID)
	}
	if voice.Format == "" {
		voice.Format = "ogg"
	}
	return InboundMessage{
		modality:   ModalityVoice,
		chatID:     chatID,
		messageID:  messageID,
		voice:      &voice,
		receivedAt: receivedAt,
	}, nil
}

func (m InboundMessage) Modality() Modality    { return m.modality }
func (m InboundMessage) ChatID() int64         { return m.chatID }
func (m InboundMessage) MessageID() int64      { return m.messageID }
func (m InboundMessage) RawText() string       { return m.rawText }
func (m InboundMessage) ReceivedAt() time.Time { return m.receivedAt }

// Voice returns the voice handle; ok is false for text messages.
func (m InboundMessage) Voice() (VoiceHandle, bool) {
	if m.voice == nil {
		return VoiceHandle{}, false
	}
	return *m.voice, true
}

// SessionID is the classifier session used for multi-turn context.
func (m InboundMessage) SessionID() string {
	return fmt.Sprintf("%d", m.chatID)
}
