package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingDimensions is fixed by the gprods.embedding column width.
const EmbeddingDimensions = 768

// OpenAIProvider implements Provider on the OpenAI API.
type OpenAIProvider struct {
	client     *openai.Client
	chatModel  string
	embedModel string
}

// NewOpenAIProvider creates a provider for the given models.
func NewOpenAIProvider(apiKey, chatModel, embedModel string) *OpenAIProvider {
	return &OpenAIProvider{
		client:     openai.NewClient(apiKey),
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

func toOpenAIMessages(req ChatRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
		switch m.Role {
		case RoleTool:
			msg.ToolCallID = m.ToolCallID
			msg.Name = m.Name
		case RoleAssistant:
			for _, tc := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

func toOpenAITools(tools []ToolDecl) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// StreamChat opens a streaming completion with tool declarations.
func (p *OpenAIProvider) StreamChat(ctx context.Context, req ChatRequest) (Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.chatModel,
		Messages: toOpenAIMessages(req),
		Tools:    toOpenAITools(req.Tools),
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open chat stream: %w", err)
	}
	return &openaiStream{stream: stream, pending: make(map[int]*ToolCall)}, nil
}

// openaiStream adapts the SDK stream, accumulating tool-call argument
// fragments until the stream ends.
type openaiStream struct {
	stream  *openai.ChatCompletionStream
	pending map[int]*ToolCall
	args    map[int][]byte
}

func (s *openaiStream) Recv() (Chunk, error) {
	for {
		resp, err := s.stream.Recv()
		if err == io.EOF {
			return Chunk{ToolCalls: s.drainToolCalls(), Done: true}, nil
		}
		if err != nil {
			return Chunk{}, err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			call, ok := s.pending[idx]
			if !ok {
				call = &ToolCall{}
				s.pending[idx] = call
			}
			if tc.ID != "" {
				call.ID = tc.ID
			}
			if tc.Function.Name != "" {
				call.Name = tc.Function.Name
			}
			if s.args == nil {
				s.args = make(map[int][]byte)
			}
			s.args[idx] = append(s.args[idx], tc.Function.Arguments...)
		}

		if delta.Content != "" {
			return Chunk{TextDelta: delta.Content}, nil
		}
	}
}

func (s *openaiStream) drainToolCalls() []ToolCall {
	if len(s.pending) == 0 {
		return nil
	}
	idxs := make([]int, 0, len(s.pending))
	for i := range s.pending {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	calls := make([]ToolCall, 0, len(idxs))
	for _, i := range idxs {
		call := *s.pending[i]
		call.Arguments = json.RawMessage(s.args[i])
		calls = append(calls, call)
	}
	s.pending = make(map[int]*ToolCall)
	s.args = nil
	return calls
}

func (s *openaiStream) Close() {
	s.stream.Close()
}

// Complete performs a JSON-mode completion and returns the raw content.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding of a text, truncated server-side to the
// fixed dimension count.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(p.embedModel),
		Input:      []string{text},
		Dimensions: EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding returned no data")
	}
	embedding := resp.Data[0].Embedding
	if len(embedding) != EmbeddingDimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(embedding), EmbeddingDimensions)
	}
	return embedding, nil
}
