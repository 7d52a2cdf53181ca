package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/amitbot-api/internal/config"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/metrics"
	"github.com/windoze95/amitbot-api/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(secret string) (*gin.Engine, *int) {
	cfg := &config.Config{EnvVars: config.EnvVars{
		TelegramWebhookSecret: secret,
		RateLimitRPS:          100,
	}}
	hits := 0
	r := gin.New()
	r.Use(logger.RequestIDMiddleware(), middleware.AttachRequestContext())
	registerRoutes(r, cfg, func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r, &hits
}

func TestPing(t *testing.T) {
	r, _ := setupTestRouter("")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Errorf("GET /ping = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.DegradedReplies.Add(0)
	r, _ := setupTestRouter("")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "amitbot_degraded_replies_total") {
		t.Error("pipeline metrics not exposed")
	}
}

func TestWebhookRequiresSecret(t *testing.T) {
	r, hits := setupTestRouter("s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/v1/telegram/webhook", strings.NewReader("{}")))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without secret = %d, want 401", w.Code)
	}

	req := httptest.NewRequest("POST", "/v1/telegram/webhook", strings.NewReader("{}"))
	req.Header.Set(middleware.TelegramSecretHeader, "s3cret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || *hits != 1 {
		t.Errorf("with secret = %d, hits = %d", w.Code, *hits)
	}
}
