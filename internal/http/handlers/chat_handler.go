// README: Chat handlers (one conversation turn, conversation reset).
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripchat/internal/modules/planner"
	"tripchat/internal/modules/session"
)

type ChatService interface {
	HandleTurn(ctx context.Context, in planner.TurnInput) (*planner.TurnOutput, error)
	Reset(ctx context.Context, key session.Key) (session.Context, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatReq struct {
	UserInput string `json:"user_input"`
	UserID    string `json:"user_id"`
	ChatID    string `json:"chat_id"`
}

type resetReq struct {
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id"`
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	key, err := session.NewKey(req.UserID, req.ChatID)
	if err != nil {
		writeSessionError(c, err)
		return
	}

	out, err := h.chat.HandleTurn(c.Request.Context(), planner.TurnInput{Key: key, Message: req.UserInput})
	if err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, out)
}

// Reset handles POST /chat/reset. An empty body resets the default conversation.
func (h *ChatHandler) Reset(c *gin.Context) {
	var req resetReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	key, err := session.NewKey(req.UserID, req.ChatID)
	if err != nil {
		writeSessionError(c, err)
		return
	}
	if _, err := h.chat.Reset(c.Request.Context(), key); err != nil {
		writeSessionError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]string{"status": "reset"})
}
