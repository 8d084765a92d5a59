// Package chat runs the multi-turn streaming tool-calling loop behind
// the chat endpoint. Sessions are serialized; distinct sessions run in
// parallel.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/internal/ai"
	"github.com/kosarica/catalog-service/internal/apperrors"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

const (
	defaultHistorySize = 30
	maxStreamRetries   = 5
)

// MessageStore persists chat turns. *Store is the pgx implementation.
type MessageStore interface {
	SaveUser(ctx context.Context, userID int64, sessionID, text string) error
	SaveAI(ctx context.Context, userID int64, sessionID, text string) error
	SaveToolCall(ctx context.Context, userID int64, sessionID string, call ai.ToolCall) error
	SaveToolOutput(ctx context.Context, userID int64, sessionID, callID, name string, output json.RawMessage) error
	History(ctx context.Context, userID int64, sessionID string, n int) ([]ai.Message, error)
}

// Part is one typed SSE payload. The handler writes it as
// `data: {"type": ..., "content": ...}\n\n`.
type Part struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// Request is one chat turn. An empty SessionID starts a new session.
type Request struct {
	UserID      int64
	DisplayName string
	SessionID   string
	Text        string
}

// Orchestrator drives the model/tool loop for chat requests.
type Orchestrator struct {
	provider     ai.Provider
	store        MessageStore
	registry     *Registry
	maxToolCalls int
	historySize  int
	log          zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*sync.Mutex

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator. maxToolCalls is the hard per-request cap
// on tool executions.
func New(provider ai.Provider, store MessageStore, registry *Registry, maxToolCalls int) *Orchestrator {
	if maxToolCalls < 1 {
		maxToolCalls = 5
	}
	return &Orchestrator{
		provider:     provider,
		store:        store,
		registry:     registry,
		maxToolCalls: maxToolCalls,
		historySize:  defaultHistorySize,
		log:          log.With().Str("component", "chat").Logger(),
		sessions:     make(map[string]*sync.Mutex),
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoffDelay is min(2^attempt, 60) seconds.
func backoffDelay(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > 60*time.Second {
		return 60 * time.Second
	}
	return d
}

func (o *Orchestrator) sessionLock(sessionID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	mu, ok := o.sessions[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		o.sessions[sessionID] = mu
	}
	return mu
}

// Run executes one chat turn, calling emit for every streamed part. It
// always emits a final `end` part carrying the session id, so clients
// can close the stream deterministically. An error from emit means the
// client went away; the turn stops at the next yield.
func (o *Orchestrator) Run(ctx context.Context, req Request, emit func(Part) error) error {
	telemetry.ChatRequestsTotal.Inc()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	mu := o.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	defer func() {
		_ = emit(Part{Type: "end", Content: map[string]string{"session_id": sessionID}})
	}()

	history, err := o.store.History(ctx, req.UserID, sessionID, o.historySize)
	if err != nil {
		return o.fail(emit, err)
	}
	if err := o.store.SaveUser(ctx, req.UserID, sessionID, req.Text); err != nil {
		return o.fail(emit, err)
	}

	messages := append(history, ai.Message{Role: ai.RoleUser, Content: req.Text})
	chatReq := ai.ChatRequest{
		System: ai.ChatSystemPrompt(req.DisplayName),
		Tools:  o.registry.Declarations(),
	}

	toolCallsUsed := 0
	for {
		chatReq.Messages = messages
		stream, err := o.openStream(ctx, chatReq)
		if err != nil {
			return o.fail(emit, err)
		}

		text, calls, err := o.consume(stream, emit)
		if err != nil {
			return o.fail(emit, err)
		}

		if len(calls) == 0 {
			if err := o.store.SaveAI(ctx, req.UserID, sessionID, text); err != nil {
				return o.fail(emit, err)
			}
			return nil
		}

		messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: text, ToolCalls: calls})

		allTerminal := true
		for _, call := range calls {
			if toolCallsUsed >= o.maxToolCalls {
				return o.fail(emit, apperrors.New(apperrors.KindBudgetExceeded,
					fmt.Sprintf("tool call budget of %d exhausted", o.maxToolCalls)))
			}
			toolCallsUsed++

			if err := o.store.SaveToolCall(ctx, req.UserID, sessionID, call); err != nil {
				return o.fail(emit, err)
			}
			if err := emit(Part{Type: "tool_call", Content: map[string]any{
				"name":      call.Name,
				"arguments": call.Arguments,
			}}); err != nil {
				return err
			}

			tool, ok := o.registry.Get(call.Name)
			if !ok {
				return o.fail(emit, fmt.Errorf("model requested unknown tool %q", call.Name))
			}

			result, err := tool.Run(ctx, req.UserID, call.Arguments)
			if err != nil {
				return o.fail(emit, fmt.Errorf("tool %s failed: %w", call.Name, err))
			}
			telemetry.ChatToolCallsTotal.WithLabelValues(call.Name).Inc()

			output, err := json.Marshal(result)
			if err != nil {
				return o.fail(emit, fmt.Errorf("tool %s produced unmarshalable output: %w", call.Name, err))
			}
			if err := o.store.SaveToolOutput(ctx, req.UserID, sessionID, call.ID, call.Name, output); err != nil {
				return o.fail(emit, err)
			}
			if err := emit(Part{Type: "tool_output", Content: map[string]any{
				"name":   call.Name,
				"output": json.RawMessage(output),
			}}); err != nil {
				return err
			}

			messages = append(messages, ai.Message{
				Role:       ai.RoleTool,
				ToolCallID: call.ID,
				Name:       call.Name,
				Content:    string(output),
			})
			if !tool.Terminal {
				allTerminal = false
			}
		}

		// Product-query shortcut: when every executed tool is terminal the
		// tool output itself is the answer.
		if allTerminal {
			return nil
		}
	}
}

// fail emits an error part and returns the error for logging. The
// deferred end part still follows.
func (o *Orchestrator) fail(emit func(Part) error, err error) error {
	o.log.Error().Err(err).Msg("chat turn failed")
	_ = emit(Part{Type: "error", Content: map[string]string{"message": err.Error()}})
	return err
}

// openStream opens the provider stream, backing off on rate-limit and
// server errors.
func (o *Orchestrator) openStream(ctx context.Context, req ai.ChatRequest) (ai.Stream, error) {
	for attempt := 0; ; attempt++ {
		stream, err := o.provider.StreamChat(ctx, req)
		if err == nil {
			return stream, nil
		}
		if !ai.IsRetryable(err) || attempt >= maxStreamRetries {
			return nil, err
		}
		delay := backoffDelay(attempt)
		o.log.Warn().Err(err).Dur("backoff", delay).Msg("provider throttled, backing off")
		if err := o.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// consume drains one stream, emitting text deltas as they arrive.
// Returns the accumulated text and any tool calls from the final chunk.
func (o *Orchestrator) consume(stream ai.Stream, emit func(Part) error) (string, []ai.ToolCall, error) {
	defer stream.Close()

	var text strings.Builder
	for {
		chunk, err := stream.Recv()
		if err != nil {
			return "", nil, fmt.Errorf("stream read failed: %w", err)
		}
		if chunk.TextDelta != "" {
			text.WriteString(chunk.TextDelta)
			if err := emit(Part{Type: "text", Content: chunk.TextDelta}); err != nil {
				return "", nil, err
			}
		}
		if chunk.Done {
			return text.String(), chunk.ToolCalls, nil
		}
	}
}
