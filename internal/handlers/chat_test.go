package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/chat"
)

type scriptedRunner struct {
	parts []chat.Part
	got   chat.Request
}

func (r *scriptedRunner) Run(ctx context.Context, req chat.Request, emit func(chat.Part) error) error {
	r.got = req
	for _, p := range r.parts {
		if err := emit(p); err != nil {
			return err
		}
	}
	return nil
}

func newChatRouter(runner ChatRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/v2/chat_v2", NewChatHandler(runner, nil).Chat)
	return router
}

func TestChatStreamsSSEParts(t *testing.T) {
	runner := &scriptedRunner{parts: []chat.Part{
		{Type: "text", Content: "Bok"},
		{Type: "end", Content: map[string]string{"session_id": "abc"}},
	}}
	router := newChatRouter(runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v2/chat_v2",
		strings.NewReader(`{"session_id":"abc","message_text":"bok"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `data: {"type":"text","content":"Bok"}`+"\n\n")
	assert.Contains(t, body, `data: {"type":"end","content":{"session_id":"abc"}}`+"\n\n")

	assert.Equal(t, "abc", runner.got.SessionID)
	assert.Equal(t, "bok", runner.got.Text)
}

func TestChatRejectsMissingMessage(t *testing.T) {
	router := newChatRouter(&scriptedRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v2/chat_v2", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
