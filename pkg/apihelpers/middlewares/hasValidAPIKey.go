package middlewares

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const APIKeyHeader = "Api-Key"

// HasValidAPIKey guards operational endpoints. An empty key list rejects every request.
func HasValidAPIKey(validKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		keysInHeader := c.Request.Header.Values(APIKeyHeader)
		if len(keysInHeader) < 1 {
			slog.Warn("A valid API key missing", slog.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "A valid API key missing"})
			return
		}

		for _, k := range keysInHeader {
			for _, vk := range validKeys {
				if vk != "" && subtle.ConstantTimeCompare([]byte(k), []byte(vk)) == 1 {
					c.Next()
					return
				}
			}
		}

		// If no keys matched:
		slog.Warn("A valid API key missing", slog.String("path", c.Request.URL.Path))
		slog.Debug("Received API keys", slog.String("receivedKeys", strings.Join(keysInHeader, ",")))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "A valid API key missing"})
	}
}
