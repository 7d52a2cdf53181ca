package router

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/windoze95/amitbot-api/internal/ai"
	"github.com/windoze95/amitbot-api/internal/config"
	"github.com/windoze95/amitbot-api/internal/domain"
	"github.com/windoze95/amitbot-api/internal/handlers"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/middleware"
	"github.com/windoze95/amitbot-api/internal/repository"
	"github.com/windoze95/amitbot-api/internal/s3"
	"github.com/windoze95/amitbot-api/internal/service"
	"github.com/windoze95/amitbot-api/internal/telegram"
	"gorm.io/gorm"
)

// Backends are the optional stores. A nil DB disables the interaction log;
// a nil Redis falls back to in-process update dedup.
type Backends struct {
	DB    *gorm.DB
	Redis redis.UniversalClient
}

// SetupRouter sets up the Gin router. The returned handler must be waited
// on at shutdown so background voice replies are delivered.
func SetupRouter(cfg *config.Config, awsCfg aws.Config, backends Backends) (*gin.Engine, *handlers.WebhookHandler) {
	// Create default Gin router
	r := gin.Default()

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware(), middleware.AttachRequestContext())

	store := s3.NewStore(awsCfg, cfg.EnvVars.S3Bucket)
	bot := telegram.NewClient(cfg.EnvVars.TelegramToken)

	orchestrator := newOrchestrator(cfg, awsCfg, store, bot, backends)

	var deduper repository.UpdateDeduper
	if backends.Redis != nil {
		deduper = repository.NewRedisDeduper(backends.Redis, repository.DefaultDedupTTL)
	} else {
		deduper = repository.NewMemoryDeduper(repository.DefaultDedupTTL)
	}

	webhookHandler := handlers.NewWebhookHandler(orchestrator, bot, store, deduper)
	registerRoutes(r, cfg, webhookHandler.HandleUpdate)

	return r, webhookHandler
}

// registerRoutes mounts the health, metrics and webhook routes.
func registerRoutes(r *gin.Engine, cfg *config.Config, webhook gin.HandlerFunc) {
	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/v1")
	{
		api.Use(middleware.RateLimitByIP(cfg.EnvVars.RateLimitRPS, time.Minute, 10*time.Minute))

		// Telegram delivers every update here
		api.POST("/telegram/webhook", middleware.CheckWebhookSecret(cfg.EnvVars.TelegramWebhookSecret), webhook)
	}
}

// newOrchestrator wires the reply pipeline from the configured providers.
func newOrchestrator(cfg *config.Config, awsCfg aws.Config, store *s3.Store, bot *telegram.Client, backends Backends) *service.Orchestrator {
	env := cfg.EnvVars
	retry := service.DefaultRetryPolicy(env.ProviderAttempts)

	var transcription ai.TranscriptionProvider
	switch env.TranscribeProvider {
	case "whisper":
		transcription = ai.NewWhisperJobProvider(env.OpenAIAPIKey, store)
	default:
		transcription = ai.NewTranscribeProvider(awsCfg, store, store.Bucket(), env.TranscribeLanguage)
	}

	var speech ai.SpeechProvider
	switch env.SpeechProvider {
	case "openai":
		speech = ai.NewOpenAISpeechProvider(env.OpenAIAPIKey)
	default:
		speech = ai.NewPollyProvider(awsCfg, env.PollyVoice)
	}

	classifier := ai.NewAnthropicClassifier(env.AnthropicAPIKey, cfg.Prompts)

	domainRouter := service.NewDomainRouter(
		domain.NewEuroleagueClient(),
		domain.NewWeatherClient(env.OpenWeatherAPIKey),
		domain.NewPlacesClient(env.GooglePlacesKey),
		env.EuroleagueSeason,
		retry,
	)

	orchestrator := &service.Orchestrator{
		Acquirer:          service.NewSpeechAcquirer(bot, store),
		Transcriber:       service.NewTranscriptionWaiter(transcription, env.TranscribePollInterval),
		Resolver:          service.NewIntentResolver(classifier, env.IntentConfidenceFloor, retry),
		Router:            domainRouter,
		Synthesizer:       service.NewResponseSynthesizer(speech, store),
		Store:             store,
		Budget:            env.RequestBudget,
		TranscribeTimeout: env.TranscribeTimeout,
	}
	if backends.DB != nil {
		orchestrator.Recorder = repository.NewInteractionRepository(backends.DB)
	}
	if env.SerializePerChat {
		orchestrator.Queue = service.NewChatQueue()
	}
	return orchestrator
}
