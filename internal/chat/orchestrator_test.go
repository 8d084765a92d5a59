package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/ai"
	"github.com/kosarica/catalog-service/internal/apperrors"
)

type fakeStream struct {
	chunks []ai.Chunk
	i      int
}

func (s *fakeStream) Recv() (ai.Chunk, error) {
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

func (s *fakeStream) Close() {}

type fakeChatProvider struct {
	streams  []func() (ai.Stream, error)
	requests []ai.ChatRequest
}

func (p *fakeChatProvider) StreamChat(ctx context.Context, req ai.ChatRequest) (ai.Stream, error) {
	p.requests = append(p.requests, req)
	return p.streams[len(p.requests)-1]()
}

func (p *fakeChatProvider) Complete(ctx context.Context, system, user string) (string, error) {
	panic("not used")
}

func (p *fakeChatProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	panic("not used")
}

type memStore struct {
	users       []string
	ais         []string
	toolCalls   []ai.ToolCall
	toolOutputs []string
}

func (m *memStore) SaveUser(ctx context.Context, userID int64, sessionID, text string) error {
	m.users = append(m.users, text)
	return nil
}

func (m *memStore) SaveAI(ctx context.Context, userID int64, sessionID, text string) error {
	m.ais = append(m.ais, text)
	return nil
}

func (m *memStore) SaveToolCall(ctx context.Context, userID int64, sessionID string, call ai.ToolCall) error {
	m.toolCalls = append(m.toolCalls, call)
	return nil
}

func (m *memStore) SaveToolOutput(ctx context.Context, userID int64, sessionID, callID, name string, output json.RawMessage) error {
	m.toolOutputs = append(m.toolOutputs, string(output))
	return nil
}

func (m *memStore) History(ctx context.Context, userID int64, sessionID string, n int) ([]ai.Message, error) {
	return nil, nil
}

func newTestRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.add(Tool{
		Decl:     ai.ToolDecl{Name: "search_products_v2"},
		Terminal: true,
		Run: func(ctx context.Context, userID int64, args json.RawMessage) (any, error) {
			return []map[string]any{{"id": 1, "canonical_name": "Limun"}}, nil
		},
	})
	r.add(Tool{
		Decl: ai.ToolDecl{Name: "get_user_locations"},
		Run: func(ctx context.Context, userID int64, args json.RawMessage) (any, error) {
			return []map[string]any{{"name": "dom"}}, nil
		},
	})
	return r
}

func streamOf(chunks ...ai.Chunk) func() (ai.Stream, error) {
	return func() (ai.Stream, error) { return &fakeStream{chunks: chunks}, nil }
}

func collectParts(target *[]Part) func(Part) error {
	return func(p Part) error {
		*target = append(*target, p)
		return nil
	}
}

func partTypes(parts []Part) []string {
	types := make([]string, len(parts))
	for i, p := range parts {
		types[i] = p.Type
	}
	return types
}

func TestRunProductQueryShortcut(t *testing.T) {
	provider := &fakeChatProvider{streams: []func() (ai.Stream, error){
		streamOf(ai.Chunk{Done: true, ToolCalls: []ai.ToolCall{
			{ID: "c1", Name: "search_products_v2", Arguments: json.RawMessage(`{"q":"limun"}`)},
		}}),
	}}
	store := &memStore{}
	o := New(provider, store, newTestRegistry(), 5)

	var parts []Part
	err := o.Run(context.Background(), Request{UserID: 7, Text: "limun"}, collectParts(&parts))
	require.NoError(t, err)

	assert.Equal(t, []string{"tool_call", "tool_output", "end"}, partTypes(parts),
		"a terminal tool answers without a follow-up model turn")
	assert.Len(t, provider.requests, 1)
	assert.Equal(t, []string{"limun"}, store.users)
	assert.Empty(t, store.ais)
	require.Len(t, store.toolCalls, 1)
	assert.Equal(t, "search_products_v2", store.toolCalls[0].Name)
	require.Len(t, store.toolOutputs, 1)
	assert.Contains(t, store.toolOutputs[0], "Limun")
}

func TestRunPlainTextTurn(t *testing.T) {
	provider := &fakeChatProvider{streams: []func() (ai.Stream, error){
		streamOf(ai.Chunk{TextDelta: "Bok"}, ai.Chunk{TextDelta: "!"}, ai.Chunk{Done: true}),
	}}
	store := &memStore{}
	o := New(provider, store, newTestRegistry(), 5)

	var parts []Part
	err := o.Run(context.Background(), Request{UserID: 7, SessionID: "s1", Text: "bok"}, collectParts(&parts))
	require.NoError(t, err)

	assert.Equal(t, []string{"text", "text", "end"}, partTypes(parts))
	assert.Equal(t, []string{"Bok!"}, store.ais)

	end := parts[len(parts)-1]
	assert.Equal(t, map[string]string{"session_id": "s1"}, end.Content)
}

func TestRunToolThenTextTurn(t *testing.T) {
	provider := &fakeChatProvider{streams: []func() (ai.Stream, error){
		streamOf(ai.Chunk{Done: true, ToolCalls: []ai.ToolCall{
			{ID: "c1", Name: "get_user_locations", Arguments: json.RawMessage(`{}`)},
		}}),
		streamOf(ai.Chunk{TextDelta: "Tvoja lokacija je dom."}, ai.Chunk{Done: true}),
	}}
	store := &memStore{}
	o := New(provider, store, newTestRegistry(), 5)

	var parts []Part
	err := o.Run(context.Background(), Request{UserID: 7, Text: "gdje kupujem"}, collectParts(&parts))
	require.NoError(t, err)

	assert.Equal(t, []string{"tool_call", "tool_output", "text", "end"}, partTypes(parts))
	require.Len(t, provider.requests, 2)

	// The second model turn sees the tool response in working history.
	second := provider.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Equal(t, "c1", last.ToolCallID)
	assert.Contains(t, last.Content, "dom")
	assert.Equal(t, []string{"Tvoja lokacija je dom."}, store.ais)
}

func TestRunToolBudgetExhausted(t *testing.T) {
	call := ai.ToolCall{ID: "c1", Name: "get_user_locations", Arguments: json.RawMessage(`{}`)}
	provider := &fakeChatProvider{streams: []func() (ai.Stream, error){
		streamOf(ai.Chunk{Done: true, ToolCalls: []ai.ToolCall{call}}),
		streamOf(ai.Chunk{Done: true, ToolCalls: []ai.ToolCall{call}}),
	}}
	o := New(provider, &memStore{}, newTestRegistry(), 1)

	var parts []Part
	err := o.Run(context.Background(), Request{UserID: 7, Text: "petlja"}, collectParts(&parts))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBudgetExceeded, apperrors.KindOf(err))

	types := partTypes(parts)
	assert.Equal(t, "error", types[len(types)-2])
	assert.Equal(t, "end", types[len(types)-1], "the end part follows even on failure")
}

func TestRunUnknownToolTerminates(t *testing.T) {
	provider := &fakeChatProvider{streams: []func() (ai.Stream, error){
		streamOf(ai.Chunk{Done: true, ToolCalls: []ai.ToolCall{
			{ID: "c1", Name: "drop_tables", Arguments: json.RawMessage(`{}`)},
		}}),
	}}
	o := New(provider, &memStore{}, newTestRegistry(), 5)

	var parts []Part
	err := o.Run(context.Background(), Request{UserID: 7, Text: "x"}, collectParts(&parts))
	require.Error(t, err)

	types := partTypes(parts)
	assert.Contains(t, types, "error")
	assert.Equal(t, "end", types[len(types)-1])
}

func TestRunBacksOffOnRateLimit(t *testing.T) {
	attempts := 0
	throttled := func() (ai.Stream, error) {
		attempts++
		if attempts == 1 {
			return nil, &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"}
		}
		return &fakeStream{chunks: []ai.Chunk{{TextDelta: "ok"}, {Done: true}}}, nil
	}
	provider := &fakeChatProvider{streams: []func() (ai.Stream, error){throttled, throttled}}
	o := New(provider, &memStore{}, newTestRegistry(), 5)

	var slept []time.Duration
	o.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	var parts []Part
	err := o.Run(context.Background(), Request{UserID: 7, Text: "bok"}, collectParts(&parts))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, slept)
	assert.Equal(t, []string{"text", "end"}, partTypes(parts))
}

func TestBackoffDelayCaps(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(0))
	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 32*time.Second, backoffDelay(5))
	assert.Equal(t, 60*time.Second, backoffDelay(6))
	assert.Equal(t, 60*time.Second, backoffDelay(20))
}
