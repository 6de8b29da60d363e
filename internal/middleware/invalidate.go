package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Invalidator drops cached reads after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// InvalidateOnWrite calls inv after every successful POST, PUT, PATCH or DELETE.
func InvalidateOnWrite(inv Invalidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		if err := inv.Invalidate(c.Request.Context()); err != nil {
			logger.Warn("cache invalidation failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
	}
}
