package service

import (
	"context"
	"errors"

	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/models"
	"github.com/windoze95/amitbot-api/internal/s3"
)

// AudioSource downloads voice recordings from the chat platform.
type AudioSource interface {
	Download(ctx context.Context, voice models.VoiceHandle) ([]byte, error)
}

// ObjectStore is the audio bucket as the pipeline sees it.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (models.StorageRef, error)
	Delete(ctx context.Context, ref models.StorageRef) error
}

// SpeechAcquirer copies a voice message into durable storage.
type SpeechAcquirer struct {
	Source AudioSource
	Store  ObjectStore
}

// NewSpeechAcquirer creates a new SpeechAcquirer.
func NewSpeechAcquirer(source AudioSource, store ObjectStore) *SpeechAcquirer {
	return &SpeechAcquirer{Source: source, Store: store}
}

// Acquire downloads the message's audio and uploads it unmodified under a
// key unique to the chat, receive time and message. It does not retry.
func (a *SpeechAcquirer) Acquire(ctx context.Context, msg models.InboundMessage) (models.StorageRef, error) {
	voice, ok := msg.Voice()
	if !ok {
		return models.StorageRef{}, apperr.New(apperr.KindAcquisition, "acquire", errors.New("message has no voice handle"))
	}

	data, err := a.Source.Download(ctx, voice)
	if err != nil {
		return models.StorageRef{}, apperr.New(apperr.KindAcquisition, "download voice", err)
	}

	contentType := voice.MimeType
	if contentType == "" {
		contentType = "audio/" + voice.Format
	}

	key := s3.VoiceKey(msg.ChatID(), msg.ReceivedAt(), msg.MessageID(), voice.Format)
	ref, err := a.Store.Put(ctx, key, contentType, data)
	if err != nil {
		return models.StorageRef{}, apperr.New(apperr.KindAcquisition, "upload voice", err)
	}
	return ref, nil
}
