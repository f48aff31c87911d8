package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/taskchat/internal/api/auth"
	"github.com/taskchat/internal/conversation"
)

// listConversations returns the user's conversations, most recently
// active first.
func (s *Server) listConversations(c echo.Context) error {
	user := auth.GetUser(c)

	limit := intQueryParam(c, "limit", 20)
	offset := intQueryParam(c, "offset", 0)

	list, err := s.convStore.ListUserConversations(c.Request().Context(), user.ID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list conversations")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve conversations")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"conversations": list,
		"count":         len(list),
	})
}

// getConversationMessages returns a conversation's messages in sequence
// order.
func (s *Server) getConversationMessages(c echo.Context) error {
	user := auth.GetUser(c)
	ctx := c.Request().Context()

	convID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID format")
	}

	// Ownership check first; messages of other users' conversations do
	// not exist as far as the caller can tell.
	conv, err := s.convStore.GetConversation(ctx, convID, user.ID)
	if errors.Is(err, conversation.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to load conversation")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve conversation")
	}

	limit := intQueryParam(c, "limit", 50)
	offset := intQueryParam(c, "offset", 0)

	messages, err := s.convStore.GetMessages(ctx, conv.ID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load messages")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve messages")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
		"count":        len(messages),
	})
}

func intQueryParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
