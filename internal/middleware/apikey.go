package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/media-rota/backend/pkg/response"
)

// APIKey returns a middleware that requires header to carry key.
// The comparison is constant time; a missing and a wrong key look the same to the client.
func APIKey(header, key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		got := c.GetHeader(header)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			response.Unauthorized(c, "missing or invalid API key")
			c.Abort()
			return
		}
		c.Next()
	}
}
