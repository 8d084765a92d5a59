package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/ai"
	"github.com/kosarica/catalog-service/internal/database"
)

// Store persists and reads chat messages. History is scoped to one
// session; other sessions of the same user never leak into context.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a message store over a pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) insert(ctx context.Context, userID int64, sessionID, sender string, content *string, toolCalls, toolOutputs []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (user_id, session_id, sender, content, tool_calls, tool_outputs, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		userID, sessionID, sender, content, toolCalls, toolOutputs)
	if err != nil {
		return fmt.Errorf("failed to persist %s message: %w", sender, err)
	}
	return nil
}

// SaveUser persists the user's message.
func (s *Store) SaveUser(ctx context.Context, userID int64, sessionID, text string) error {
	return s.insert(ctx, userID, sessionID, database.SenderUser, &text, nil, nil)
}

// SaveAI persists a final model text response.
func (s *Store) SaveAI(ctx context.Context, userID int64, sessionID, text string) error {
	return s.insert(ctx, userID, sessionID, database.SenderAI, &text, nil, nil)
}

// SaveToolCall persists one tool call requested by the model.
func (s *Store) SaveToolCall(ctx context.Context, userID int64, sessionID string, call ai.ToolCall) error {
	payload, err := json.Marshal([]ai.ToolCall{call})
	if err != nil {
		return fmt.Errorf("failed to marshal tool call: %w", err)
	}
	return s.insert(ctx, userID, sessionID, database.SenderToolCall, nil, payload, nil)
}

// toolOutputRecord is the persisted shape of one tool result.
type toolOutputRecord struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Output json.RawMessage `json:"output"`
}

// SaveToolOutput persists one tool result.
func (s *Store) SaveToolOutput(ctx context.Context, userID int64, sessionID, callID, name string, output json.RawMessage) error {
	payload, err := json.Marshal([]toolOutputRecord{{ID: callID, Name: name, Output: output}})
	if err != nil {
		return fmt.Errorf("failed to marshal tool output: %w", err)
	}
	return s.insert(ctx, userID, sessionID, database.SenderToolOutput, nil, nil, payload)
}

// History returns the last n messages of a session converted to
// provider-neutral shape, chronological.
func (s *Store) History(ctx context.Context, userID int64, sessionID string, n int) ([]ai.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sender, content, tool_calls, tool_outputs
		FROM (
			SELECT sender, content, tool_calls, tool_outputs, timestamp, id
			FROM chat_messages
			WHERE user_id = $1 AND session_id = $2
			ORDER BY timestamp DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY timestamp ASC, id ASC`, userID, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var messages []ai.Message
	for rows.Next() {
		var sender string
		var content *string
		var toolCalls, toolOutputs []byte
		if err := rows.Scan(&sender, &content, &toolCalls, &toolOutputs); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}

		switch sender {
		case database.SenderUser:
			if content != nil {
				messages = append(messages, ai.Message{Role: ai.RoleUser, Content: *content})
			}
		case database.SenderAI:
			if content != nil {
				messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: *content})
			}
		case database.SenderToolCall:
			var calls []ai.ToolCall
			if err := json.Unmarshal(toolCalls, &calls); err != nil {
				return nil, fmt.Errorf("bad persisted tool_calls: %w", err)
			}
			messages = append(messages, ai.Message{Role: ai.RoleAssistant, ToolCalls: calls})
		case database.SenderToolOutput:
			var outputs []toolOutputRecord
			if err := json.Unmarshal(toolOutputs, &outputs); err != nil {
				return nil, fmt.Errorf("bad persisted tool_outputs: %w", err)
			}
			for _, out := range outputs {
				messages = append(messages, ai.Message{
					Role:       ai.RoleTool,
					ToolCallID: out.ID,
					Name:       out.Name,
					Content:    string(out.Output),
				})
			}
		}
	}
	return messages, rows.Err()
}
