package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/internal/chat"
	"github.com/kosarica/catalog-service/internal/middleware"
)

// ChatRunner is the orchestrator surface the handler needs.
type ChatRunner interface {
	Run(ctx context.Context, req chat.Request, emit func(chat.Part) error) error
}

// ChatHandler serves POST /v2/chat_v2 as an SSE stream.
type ChatHandler struct {
	runner ChatRunner
	// displayName resolves the caller's display name for the system
	// prompt; may be nil.
	displayName func(ctx context.Context, userID int64) string
}

// NewChatHandler creates the chat handler.
func NewChatHandler(runner ChatRunner, displayName func(ctx context.Context, userID int64) string) *ChatHandler {
	return &ChatHandler{runner: runner, displayName: displayName}
}

type chatRequest struct {
	SessionID   string `json:"session_id"`
	MessageText string `json:"message_text" binding:"required"`
}

// Chat godoc
// @Summary Stream one chat turn as Server-Sent Events
// @Tags chat
// @Accept json
// @Produce text/event-stream
// @Param request body chatRequest true "chat turn"
// @Router /v2/chat_v2 [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.UserID(c)

	name := ""
	if h.displayName != nil {
		name = h.displayName(c.Request.Context(), userID)
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	emit := func(p chat.Part) error {
		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal part: %w", err)
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	err := h.runner.Run(c.Request.Context(), chat.Request{
		UserID:      userID,
		DisplayName: name,
		SessionID:   req.SessionID,
		Text:        req.MessageText,
	}, emit)
	if err != nil {
		// The stream already carried an error part; nothing more to send.
		log.Warn().Str("component", "api").Err(err).Msg("chat stream ended with error")
	}
}
