package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/util"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupSecretRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(CheckWebhookSecret(secret))
	r.POST("/hook", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestCheckWebhookSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"matching", "s3cret", "s3cret", http.StatusOK},
		{"wrong", "s3cret", "guess", http.StatusUnauthorized},
		{"missing", "s3cret", "", http.StatusUnauthorized},
		{"disabled", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupSecretRouter(tt.secret)
			req := httptest.NewRequest("POST", "/hook", nil)
			if tt.header != "" {
				req.Header.Set(TelegramSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAttachRequestContext(t *testing.T) {
	r := gin.New()
	r.Use(logger.RequestIDMiddleware(), AttachRequestContext())
	var fromCtx string
	r.GET("/test", func(c *gin.Context) {
		fromCtx = util.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if fromCtx == "" {
		t.Fatal("request id not attached to the request context")
	}
	if got := w.Header().Get("X-Request-ID"); got != fromCtx {
		t.Errorf("X-Request-ID = %q, context id = %q", got, fromCtx)
	}
}

func TestRateLimitByIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitByIP(1, time.Minute, time.Minute))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want burst of 2 allowed", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}
}

func TestSweepLimiters(t *testing.T) {
	var limiters sync.Map
	now := time.Now()
	stale, active := &limiterInfo{}, &limiterInfo{}
	stale.touch(now.Add(-2 * time.Minute))
	active.touch(now.Add(-10 * time.Second))
	limiters.Store("10.0.0.1", stale)
	limiters.Store("10.0.0.2", active)

	sweepLimiters(&limiters, time.Minute, now)

	if _, ok := limiters.Load("10.0.0.1"); ok {
		t.Error("stale limiter was kept")
	}
	if _, ok := limiters.Load("10.0.0.2"); !ok {
		t.Error("active limiter was dropped")
	}
}

func TestRateLimitByIP_ConcurrentWithCleanup(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitByIP(1000, time.Millisecond, time.Millisecond))
	r.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				w := httptest.NewRecorder()
				req := httptest.NewRequest("GET", "/test", nil)
				req.RemoteAddr = "10.0.0.9:1234"
				r.ServeHTTP(w, req)
				if w.Code != http.StatusOK {
					t.Errorf("status = %d, want 200", w.Code)
					return
				}
				time.Sleep(100 * time.Microsecond)
			}
		}()
	}
	wg.Wait()
}
