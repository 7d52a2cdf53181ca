package service

import (
	"context"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/google/uuid"
	"github.com/windoze95/amitbot-api/internal/ai"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/metrics"
	"github.com/windoze95/amitbot-api/internal/models"
	"github.com/windoze95/amitbot-api/internal/s3"
	"go.uber.org/zap"
)

// ResponseSynthesizer builds the reply payload, speaking it when the
// request came in as voice.
type ResponseSynthesizer struct {
	Speech ai.SpeechProvider
	Store  ObjectStore

	censor *goaway.ProfanityDetector
	now    func() time.Time
}

// NewResponseSynthesizer creates a new ResponseSynthesizer.
func NewResponseSynthesizer(speech ai.SpeechProvider, store ObjectStore) *ResponseSynthesizer {
	return &ResponseSynthesizer{
		Speech: speech,
		Store:  store,
		censor: goaway.NewProfanityDetector().WithSanitizeLeetSpeak(false).WithSanitizeSpecialCharacters(false).WithSanitizeAccents(false),
		now:    time.Now,
	}
}

// Synthesize never fails: if speech cannot be produced or stored the reply
// falls back to text and is marked degraded. Text replies are returned as
// is and never touch the speech provider.
func (s *ResponseSynthesizer) Synthesize(ctx context.Context, chatID int64, text string, modality models.Modality) models.ReplyPayload {
	if modality != models.ModalityVoice {
		return models.NewTextReply(text)
	}

	spoken := text
	if s.censor != nil {
		spoken = s.censor.Censor(text)
	}

	audio, err := s.Speech.SynthesizeSpeech(ctx, spoken)
	if err != nil {
		return s.degrade(chatID, text, "speech synthesis failed", err)
	}

	key := s3.ReplyKey(chatID, s.now(), uuid.New().String(), audio.Ext)
	ref, err := s.Store.Put(ctx, key, audio.ContentType, audio.Data)
	if err != nil {
		return s.degrade(chatID, text, "speech upload failed", err)
	}

	return models.ReplyPayload{
		Text:     text,
		Modality: models.ModalityVoice,
		Speech:   models.FullSpeech{Ref: ref},
	}
}

func (s *ResponseSynthesizer) degrade(chatID int64, text, reason string, err error) models.ReplyPayload {
	logger.Get().Warn("voice reply degraded to text",
		zap.Int64("chat_id", chatID),
		zap.String("reason", reason),
		zap.Error(err),
	)
	metrics.DegradedReplies.Inc()
	return models.ReplyPayload{
		Text:     text,
		Modality: models.ModalityText,
		Speech:   models.DegradedSpeech{Reason: reason},
	}
}
