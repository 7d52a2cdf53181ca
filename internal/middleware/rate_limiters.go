package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/amitbot-api/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterInfo is a struct that holds a rate limiter and the last time it was
// seen, in unix nanoseconds. Requests write lastSeen while cleanup reads it.
type limiterInfo struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

func (i *limiterInfo) touch(now time.Time) {
	i.lastSeen.Store(now.UnixNano())
}

func (i *limiterInfo) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, i.lastSeen.Load()))
}

// sweepLimiters drops limiters not seen within expiration.
func sweepLimiters(limiters *sync.Map, expiration time.Duration, now time.Time) {
	limiters.Range(func(key, value interface{}) bool {
		if value.(*limiterInfo).idle(now) > expiration {
			limiters.Delete(key)
		}
		return true
	})
}

// RateLimitByIP applies rate limiting to requests per client IP. Telegram
// delivers from a small pool of addresses, so rps should leave headroom for
// bursts of updates.
func RateLimitByIP(rps int, cleanupInterval time.Duration, expiration time.Duration) gin.HandlerFunc {
	if rps < 1 {
		rps = 1
	}
	var limiters sync.Map

	// Cleanup goroutine
	go func() {
		for now := range time.Tick(cleanupInterval) {
			sweepLimiters(&limiters, expiration, now)
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		fresh := &limiterInfo{limiter: rate.NewLimiter(rate.Limit(rps), rps*2)}
		fresh.touch(time.Now())
		actual, _ := limiters.LoadOrStore(ip, fresh)

		info := actual.(*limiterInfo)
		info.touch(time.Now())

		if !info.limiter.Allow() {
			logger.Get().Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}
