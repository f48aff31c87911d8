package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"github.com/taskchat/internal/conversation"
	"github.com/taskchat/internal/retry"
	"github.com/taskchat/internal/tools"
	"github.com/taskchat/pkg/models"
)

const (
	fallbackResponse = "I'm sorry, I couldn't process that request."
	errorResponse    = "I encountered an unexpected error. Please try again."
)

// Agent runs the tool-calling conversation loop against a chat model.
// It is stateless; history and identity arrive with each Chat call.
type Agent struct {
	model       llms.Model
	maxRounds   int
	retryConfig retry.RetryConfig
	callOpts    []llms.CallOption
}

// Result is the outcome of one agent turn.
type Result struct {
	Response  string                  `json:"response"`
	ToolCalls []models.ToolCallRecord `json:"tool_calls"`
	Err       string                  `json:"error,omitempty"`
}

// New builds an agent around a chat model. callOpts (temperature, token
// limits, so on) are sent with every model call.
func New(model llms.Model, maxRounds int, callOpts ...llms.CallOption) *Agent {
	if maxRounds < 1 {
		maxRounds = 5
	}
	return &Agent{
		model:       model,
		maxRounds:   maxRounds,
		retryConfig: retry.LLMRetryConfig(),
		callOpts:    callOpts,
	}
}

// Chat processes one user message. Tool calls requested by the model are
// dispatched through the executor, bounded by maxRounds; the final text
// reply and the record of executed tools come back in the Result. Chat
// never returns a Go error: model failures degrade to an apology so the
// conversation survives.
func (a *Agent) Chat(ctx context.Context, executor *tools.Executor, history []*conversation.Message, userMessage string) *Result {
	messages := a.buildMessages(history, userMessage)
	toolDefs := tools.Definitions()
	records := make([]models.ToolCallRecord, 0)

	for round := 0; round < a.maxRounds; round++ {
		resp, err := a.generate(ctx, messages, toolDefs)
		if err != nil {
			log.Error().Err(err).Int("round", round).Msg("Chat model call failed")
			return &Result{Response: errorResponse, ToolCalls: records, Err: "unexpected_error"}
		}
		if len(resp.Choices) == 0 {
			return &Result{Response: fallbackResponse, ToolCalls: records}
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			text := choice.Content
			if text == "" {
				text = fallbackResponse
			}
			return &Result{Response: text, ToolCalls: records}
		}

		log.Info().Int("count", len(choice.ToolCalls)).Int("round", round).Msg("Agent requested tool calls")

		// Echo the assistant's tool-call message back, then one tool
		// response per call, so the model sees its own requests.
		assistantMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, tc := range choice.ToolCalls {
			assistantMsg.Parts = append(assistantMsg.Parts, tc)
		}
		messages = append(messages, assistantMsg)

		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			name := tc.FunctionCall.Name
			rawArgs := tc.FunctionCall.Arguments

			result := executor.Execute(ctx, name, rawArgs)
			records = append(records, models.ToolCallRecord{
				Tool:      name,
				Arguments: parseArguments(rawArgs),
			})

			payload, err := json.Marshal(result)
			if err != nil {
				payload = []byte(fmt.Sprintf(`{"status":"error","error":"execution_error","message":"failed to encode result for %s"}`, name))
			}

			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: tc.ID,
						Name:       name,
						Content:    string(payload),
					},
				},
			})
		}
	}

	// Round budget exhausted with the model still asking for tools. One
	// last call without tools forces a text answer.
	resp, err := a.generate(ctx, messages, nil)
	if err != nil || len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return &Result{Response: fallbackResponse, ToolCalls: records}
	}
	return &Result{Response: resp.Choices[0].Content, ToolCalls: records}
}

func (a *Agent) buildMessages(history []*conversation.Message, userMessage string) []llms.MessageContent {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
	}

	// Only user and assistant turns are replayed; tool traffic from past
	// turns would confuse models that validate tool-call pairing.
	for _, m := range history {
		switch m.Role {
		case conversation.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case conversation.RoleAssistant:
			if m.Content != "" {
				messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, m.Content))
			}
		}
	}

	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userMessage))
}

func (a *Agent) generate(ctx context.Context, messages []llms.MessageContent, toolDefs []llms.Tool) (*llms.ContentResponse, error) {
	opts := append([]llms.CallOption{}, a.callOpts...)
	if len(toolDefs) > 0 {
		opts = append(opts, llms.WithTools(toolDefs))
	}

	var resp *llms.ContentResponse
	var lastErr error

	result := retry.RetryWithBackoff(ctx, a.retryConfig, func() error {
		r, err := a.model.GenerateContent(ctx, messages, opts...)
		if err != nil {
			lastErr = err
			if retry.IsRetryableError(err) {
				return err
			}
			// Non-retryable failures stop the loop; the error is
			// surfaced below.
			return nil
		}
		resp = r
		return nil
	})

	if resp == nil {
		if lastErr != nil {
			return nil, lastErr
		}
		if result.LastError != nil {
			return nil, result.LastError
		}
		return nil, errors.New("chat model returned no response")
	}
	return resp, nil
}

// parseArguments best-effort decodes the raw argument string for the
// audit record; a broken payload records as nil rather than failing the
// turn.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil
	}
	return args
}
