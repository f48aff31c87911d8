package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/taskchat/internal/conversation"
	"github.com/taskchat/internal/tasks"
	"github.com/taskchat/internal/tools"
)

// scriptedModel returns canned responses in order and records the
// message batches and call options it was called with.
type scriptedModel struct {
	responses []*llms.ContentResponse
	err       error
	calls     [][]llms.MessageContent
	lastOpts  []llms.CallOption
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, messages)
	m.lastOpts = options
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: ""}}}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func textResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

func toolCallResponse(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:   id,
			Type: "function",
			FunctionCall: &llms.FunctionCall{
				Name:      name,
				Arguments: args,
			},
		}},
	}}}
}

func newChatFixture(t *testing.T) (*tools.Executor, *tasks.InMemoryStore, uuid.UUID) {
	t.Helper()
	store := tasks.NewInMemoryStore()
	userID := uuid.New()
	executor := tools.NewExecutor(userID)
	tools.RegisterAll(executor, store)
	return executor, store, userID
}

func TestChat_PlainTextTurn(t *testing.T) {
	executor, _, _ := newChatFixture(t)
	model := &scriptedModel{responses: []*llms.ContentResponse{
		textResponse("Hello! How can I help with your tasks?"),
	}}

	a := New(model, 5)
	result := a.Chat(context.Background(), executor, nil, "hi")

	assert.Equal(t, "Hello! How can I help with your tasks?", result.Response)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, result.Err)
}

func TestChat_ExecutesToolThenResponds(t *testing.T) {
	executor, store, userID := newChatFixture(t)
	model := &scriptedModel{responses: []*llms.ContentResponse{
		toolCallResponse("call_1", "add_task", `{"title": "buy milk"}`),
		textResponse("I've added 'buy milk' to your list."),
	}}

	a := New(model, 5)
	result := a.Chat(context.Background(), executor, nil, "add buy milk to my list")

	assert.Equal(t, "I've added 'buy milk' to your list.", result.Response)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "add_task", result.ToolCalls[0].Tool)
	assert.Equal(t, "buy milk", result.ToolCalls[0].Arguments["title"])

	// The tool actually ran against the store.
	list, err := store.ListByUser(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "buy milk", list[0].Title)

	// Second model call saw the tool response.
	require.Len(t, model.calls, 2)
	second := model.calls[1]
	last := second[len(second)-1]
	assert.Equal(t, llms.ChatMessageTypeTool, last.Role)
}

func TestChat_HistoryReplaysUserAndAssistantOnly(t *testing.T) {
	executor, _, _ := newChatFixture(t)
	model := &scriptedModel{responses: []*llms.ContentResponse{textResponse("ok")}}

	history := []*conversation.Message{
		{Role: conversation.RoleUser, Content: "earlier question"},
		{Role: conversation.RoleAssistant, Content: "earlier answer"},
		{Role: conversation.RoleTool, Content: `{"status":"success"}`},
	}

	a := New(model, 5)
	a.Chat(context.Background(), executor, history, "follow-up")

	require.Len(t, model.calls, 1)
	msgs := model.calls[0]
	// system + 2 history turns + current message; the tool message is dropped.
	require.Len(t, msgs, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, msgs[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, msgs[2].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, msgs[3].Role)
}

func TestChat_ForwardsCallOptions(t *testing.T) {
	executor, _, _ := newChatFixture(t)
	model := &scriptedModel{responses: []*llms.ContentResponse{textResponse("ok")}}

	a := New(model, 5, llms.WithTemperature(0.2), llms.WithMaxTokens(512))
	a.Chat(context.Background(), executor, nil, "hi")

	var applied llms.CallOptions
	for _, opt := range model.lastOpts {
		opt(&applied)
	}
	assert.Equal(t, 0.2, applied.Temperature)
	assert.Equal(t, 512, applied.MaxTokens)
}

func TestChat_ModelFailureDegradesToApology(t *testing.T) {
	executor, _, _ := newChatFixture(t)
	model := &scriptedModel{err: errors.New("invalid api key")}

	a := New(model, 5)
	result := a.Chat(context.Background(), executor, nil, "hello")

	assert.Equal(t, errorResponse, result.Response)
	assert.Equal(t, "unexpected_error", result.Err)
	assert.Empty(t, result.ToolCalls)
}

func TestChat_EmptyContentFallsBack(t *testing.T) {
	executor, _, _ := newChatFixture(t)
	model := &scriptedModel{responses: []*llms.ContentResponse{textResponse("")}}

	a := New(model, 5)
	result := a.Chat(context.Background(), executor, nil, "hello")

	assert.Equal(t, fallbackResponse, result.Response)
}

func TestChat_ToolFailureStillAnswers(t *testing.T) {
	executor, _, _ := newChatFixture(t)
	// Tool call for a task that does not exist, then a model reply that
	// explains the failure.
	model := &scriptedModel{responses: []*llms.ContentResponse{
		toolCallResponse("call_1", "complete_task", `{"task_id": "`+uuid.NewString()+`"}`),
		textResponse("I couldn't find that task."),
	}}

	a := New(model, 5)
	result := a.Chat(context.Background(), executor, nil, "complete the report task")

	assert.Equal(t, "I couldn't find that task.", result.Response)
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "complete_task", result.ToolCalls[0].Tool)
}

func TestChat_RoundLimitForcesTextAnswer(t *testing.T) {
	executor, _, _ := newChatFixture(t)
	// The model asks for tools on every round; after the budget the
	// agent forces a final text call.
	model := &scriptedModel{responses: []*llms.ContentResponse{
		toolCallResponse("c1", "list_tasks", `{}`),
		toolCallResponse("c2", "list_tasks", `{}`),
		textResponse("Here is what I found."),
	}}

	a := New(model, 2)
	result := a.Chat(context.Background(), executor, nil, "what do I have to do?")

	assert.Equal(t, "Here is what I found.", result.Response)
	assert.Len(t, result.ToolCalls, 2)
	assert.Len(t, model.calls, 3)
}
