// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tripchat/internal/http/handlers"
	"tripchat/internal/http/middleware"
)

type RouterDeps struct {
	Chat    handlers.ChatService
	Logger  zerolog.Logger
	Metrics middleware.HTTPRecorder
	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Metrics),
		middleware.Recovery(),
	)

	chat := handlers.NewChatHandler(deps.Chat)
	r.POST("/chat", chat.Chat)
	r.POST("/chat/reset", chat.Reset)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}
	return r
}
