package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/windoze95/amitbot-api/internal/util"
)

// AttachRequestContext copies the gin request id into the request's
// context.Context so code below the handlers can log it.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestID := util.GetRequestIDFromContext(c); requestID != "" {
			c.Request = c.Request.WithContext(util.WithRequestID(c.Request.Context(), requestID))
		}
		c.Next()
	}
}
