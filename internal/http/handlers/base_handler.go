// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tripchat/internal/modules/session"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidKey):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrUnavailable):
		writeError(c, http.StatusServiceUnavailable, "conversation store unavailable")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(c, http.StatusServiceUnavailable, "conversation busy, try again")
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("unhandled error")
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
