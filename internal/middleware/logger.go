package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs every request in the same component-prefixed format the
// engine uses, so API and engine lines interleave readably.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		suffix := ""
		if len(c.Errors) > 0 {
			suffix = " " + c.Errors.String()
		}
		log.Printf("[HTTP] %s %s -> %d in %v from %s%s",
			c.Request.Method, path, c.Writer.Status(), time.Since(start), c.ClientIP(), suffix)
	}
}
