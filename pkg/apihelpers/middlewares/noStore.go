package middlewares

import "github.com/gin-gonic/gin"

// NoStore keeps browsers from caching any page, so back navigation always asks the server.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, max-age=0")
		c.Next()
	}
}
