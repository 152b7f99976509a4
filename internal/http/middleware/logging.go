// README: Access logging and HTTP metrics middleware.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type HTTPRecorder interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

func Logging(rec HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		d := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if rec != nil {
			rec.ObserveHTTP(c.Request.Method, route, status, d)
		}

		log := zerolog.Ctx(c.Request.Context())
		ev := log.Info()
		if status >= 500 {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", d).
			Msg("request")
	}
}
