// Package ai abstracts the LLM vendor behind a provider interface so the
// normalizer and the chat orchestrator never touch vendor SDK types.
package ai

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/invopop/jsonschema"
	openai "github.com/sashabaranov/go-openai"
)

// Message roles in provider-neutral history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model's structured request to invoke a named function.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one turn of provider-neutral conversation history.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolDecl declares one callable function to the model. Parameters is a
// JSON Schema reflected from the tool's argument struct.
type ToolDecl struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// ChatRequest is one streaming generation call.
type ChatRequest struct {
	System   string
	Messages []Message
	Tools    []ToolDecl
}

// Chunk is one streamed increment. TextDelta carries incremental text;
// ToolCalls are delivered complete on the final chunk of a tool-calling
// turn; Done marks the end of the stream.
type Chunk struct {
	TextDelta string
	ToolCalls []ToolCall
	Done      bool
}

// Stream yields chunks until Done or error.
type Stream interface {
	Recv() (Chunk, error)
	Close()
}

// Provider is the vendor-neutral surface the pipeline depends on.
type Provider interface {
	// StreamChat opens a streaming generation call with tool support.
	StreamChat(ctx context.Context, req ChatRequest) (Stream, error)
	// Complete performs a non-streaming JSON-mode completion.
	Complete(ctx context.Context, system, user string) (string, error)
	// Embed returns the 768-dim embedding of a text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IsRetryable reports whether a provider error is a transient rate-limit
// or server-side failure worth backing off on.
func IsRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}
