package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/metrics"
	"github.com/windoze95/amitbot-api/internal/models"
	"github.com/windoze95/amitbot-api/internal/repository"
	"github.com/windoze95/amitbot-api/internal/service"
	"github.com/windoze95/amitbot-api/internal/telegram"
	"github.com/windoze95/amitbot-api/internal/util"
	"go.uber.org/zap"
)

const (
	voiceAckText     = "We are processing your request, please wait..."
	welcomeText      = "Hello and welcome! Ask me about Euroleague results, the weather or places to visit. You can type or send a voice message."
	weatherPrompt    = "Please provide the city name so I can fetch the weather details."
	euroleaguePrompt = "Please provide the team name for Euroleague details."

	audioURLTTL = time.Hour
)

// Messenger sends replies back to a chat.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	SendAudio(ctx context.Context, chatID int64, audioURL, caption string) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// Pipeline produces the reply for one inbound message.
type Pipeline interface {
	Handle(ctx context.Context, msg models.InboundMessage) *service.Outcome
}

// Presigner turns a stored reply into a URL Telegram can fetch.
type Presigner interface {
	PresignGet(ctx context.Context, ref models.StorageRef, ttl time.Duration) (string, error)
}

// WebhookHandler is the handler for Telegram webhook updates.
type WebhookHandler struct {
	Pipeline  Pipeline
	Messenger Messenger
	Presigner Presigner
	Deduper   repository.UpdateDeduper

	now      func() time.Time
	inflight sync.WaitGroup
}

// NewWebhookHandler is the constructor function for initializing a new WebhookHandler.
func NewWebhookHandler(pipeline Pipeline, messenger Messenger, presigner Presigner, deduper repository.UpdateDeduper) *WebhookHandler {
	return &WebhookHandler{
		Pipeline:  pipeline,
		Messenger: messenger,
		Presigner: presigner,
		Deduper:   deduper,
		now:       time.Now,
	}
}

// HandleUpdate receives one Telegram update. Text messages are answered
// before the response is written; voice messages are acknowledged at once
// and answered in the background. Neither reply is tied to the request
// context; the pipeline budget bounds both.
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update payload"})
		return
	}

	// Replies must go out even if Telegram drops the connection; the update
	// is already marked seen, so a redelivery would be dropped as a duplicate.
	ctx := context.WithoutCancel(c.Request.Context())
	log := logger.ForChat(update.ChatID(), util.GetRequestIDFromContext(c)).With(zap.Int64("update_id", update.UpdateID))

	if h.Deduper != nil {
		first, err := h.Deduper.FirstSeen(ctx, update.UpdateID)
		if err != nil {
			log.Warn("update dedup unavailable, processing anyway", zap.Error(err))
		} else if !first {
			metrics.DuplicateUpdates.Inc()
			log.Info("duplicate update ignored")
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
	}

	if update.CallbackQuery != nil {
		c.JSON(http.StatusOK, gin.H{"status": h.handleCallback(ctx, log, update.CallbackQuery)})
		return
	}

	msg, ok := update.InboundMessage(h.now())
	if !ok {
		log.Info("update has no text or voice")
		c.JSON(http.StatusOK, gin.H{"status": "no content"})
		return
	}

	if cmd, isCmd := parseCommand(msg.RawText()); isCmd && cmd == "/start" {
		if err := h.Messenger.SendMessage(ctx, msg.ChatID(), welcomeText, startKeyboard()); err != nil {
			log.Error("failed to send welcome", zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if msg.Modality() == models.ModalityVoice {
		if err := h.Messenger.SendMessage(ctx, msg.ChatID(), voiceAckText, nil); err != nil {
			log.Warn("failed to send voice acknowledgment", zap.Error(err))
		}
		h.inflight.Add(1)
		go func() {
			defer h.inflight.Done()
			h.reply(ctx, log, msg)
		}()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	h.reply(ctx, log, msg)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Wait blocks until every background pipeline has replied.
func (h *WebhookHandler) Wait() {
	h.inflight.Wait()
}

func (h *WebhookHandler) handleCallback(ctx context.Context, log *zap.Logger, cb *telegram.CallbackQuery) string {
	if err := h.Messenger.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		log.Warn("failed to answer callback query", zap.Error(err))
	}
	if cb.Message == nil {
		return "no content"
	}

	var text string
	switch cb.Data {
	case "/weather":
		text = weatherPrompt
	case "/euroleague":
		text = euroleaguePrompt
	default:
		log.Info("unhandled callback data", zap.String("data", cb.Data))
		return "no content"
	}

	if err := h.Messenger.SendMessage(ctx, cb.Message.Chat.ID, text, nil); err != nil {
		log.Error("failed to answer callback", zap.Error(err))
	}
	return "ok"
}

func (h *WebhookHandler) reply(ctx context.Context, log *zap.Logger, msg models.InboundMessage) {
	out := h.Pipeline.Handle(ctx, msg)
	h.deliver(ctx, log, msg.ChatID(), out.Reply)
}

// deliver sends the reply as audio when it has any, falling back to text
// if the audio cannot be linked or sent.
func (h *WebhookHandler) deliver(ctx context.Context, log *zap.Logger, chatID int64, reply models.ReplyPayload) {
	if ref, ok := reply.AudioRef(); ok && h.Presigner != nil {
		url, err := h.Presigner.PresignGet(ctx, ref, audioURLTTL)
		if err == nil {
			err = h.Messenger.SendAudio(ctx, chatID, url, reply.Text)
		}
		if err == nil {
			return
		}
		log.Warn("failed to send audio reply, sending text", zap.String("storage_ref", ref.URI()), zap.Error(err))
	}

	if err := h.Messenger.SendMessage(ctx, chatID, reply.Text, nil); err != nil {
		log.Error("failed to send reply", zap.Error(err))
	}
}

func startKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "Weather", CallbackData: "/weather"},
				{Text: "Euroleague", CallbackData: "/euroleague"},
			},
		},
	}
}
