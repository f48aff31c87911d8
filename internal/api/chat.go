package api

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/taskchat/internal/api/auth"
	"github.com/taskchat/internal/conversation"
	"github.com/taskchat/internal/tools"
)

const maxChatMessageLength = 2000

// ChatRequest is the payload for the chat endpoint
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is returned from the chat endpoint
type ChatResponse struct {
	ConversationID string         `json:"conversation_id"`
	Response       string         `json:"response"`
	ToolCalls      []ToolCallInfo `json:"tool_calls"`
	Timestamp      string         `json:"timestamp"`
}

// ToolCallInfo describes one tool the agent executed during the turn
type ToolCallInfo struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// chat handles one conversational turn: it loads or creates the
// conversation, persists the user message, runs the agent, and persists
// the assistant reply.
func (s *Server) chat(c echo.Context) error {
	user := auth.GetUser(c)
	ctx := c.Request().Context()

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message cannot be empty")
	}
	if utf8.RuneCountInString(req.Message) > maxChatMessageLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Message must be 2000 characters or less")
	}

	if s.agent == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI service configuration error. Please contact support.")
	}

	// Load or create the conversation.
	var conv *conversation.Conversation
	var history []*conversation.Message
	isNew := false

	if req.ConversationID != "" {
		convID, err := uuid.Parse(req.ConversationID)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid conversation ID format")
		}

		conv, err = s.convStore.GetConversation(ctx, convID, user.ID)
		if errors.Is(err, conversation.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to load conversation")
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load conversation")
		}

		history, err = s.convStore.GetMessages(ctx, conv.ID, s.cfg.Agent.HistoryLimit, 0)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load conversation history")
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load conversation")
		}
	} else {
		var err error
		conv, err = s.convStore.CreateConversation(ctx, user.ID, nil)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create conversation")
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create conversation")
		}
		isNew = true
	}

	// Persist the user message before calling the model so the turn is
	// recorded even if the model fails.
	if _, err := s.convStore.AddMessage(ctx, conv.ID, conversation.AddMessageParams{
		Role:    conversation.RoleUser,
		Content: req.Message,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to save user message")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save message")
	}

	executor := tools.NewExecutor(user.ID)
	tools.RegisterAll(executor, s.taskStore)

	log.Info().Stringer("user_id", user.ID).Stringer("conversation_id", conv.ID).Msg("Processing chat message")
	result := s.agent.Chat(ctx, executor, history, req.Message)

	if _, err := s.convStore.AddMessage(ctx, conv.ID, conversation.AddMessageParams{
		Role:      conversation.RoleAssistant,
		Content:   result.Response,
		ToolCalls: result.ToolCalls,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to save assistant message")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save message")
	}

	if isNew && s.jobQueue != nil {
		if err := s.jobQueue.QueueTitleJob(ctx, conv.ID, user.ID, req.Message); err != nil {
			// Title generation is cosmetic; the chat response still goes out.
			log.Warn().Err(err).Stringer("conversation_id", conv.ID).Msg("Failed to queue title job")
		}
	}

	toolCalls := make([]ToolCallInfo, 0, len(result.ToolCalls))
	for _, tc := range result.ToolCalls {
		toolCalls = append(toolCalls, ToolCallInfo{Tool: tc.Tool, Arguments: tc.Arguments})
	}

	return c.JSON(http.StatusOK, ChatResponse{
		ConversationID: conv.ID.String(),
		Response:       result.Response,
		ToolCalls:      toolCalls,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}
