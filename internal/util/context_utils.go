package util

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/windoze95/amitbot-api/internal/logger"
)

type requestIDCtxKey struct{}

// GetRequestIDFromContext gets the request ID set by the request-id
// middleware, or "" when there is none.
func GetRequestIDFromContext(c *gin.Context) string {
	val, ok := c.Get(logger.RequestIDKey)
	if !ok {
		return ""
	}
	requestID, _ := val.(string)
	return requestID
}

// WithRequestID returns a copy of ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, requestID)
}

// RequestIDFrom returns the request ID stored by WithRequestID.
func RequestIDFrom(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDCtxKey{}).(string)
	return requestID
}
