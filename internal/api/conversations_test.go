package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/internal/conversation"
)

func TestListConversations(t *testing.T) {
	s, user := newTestServer(t)
	ctx := t.Context()

	_, err := s.convStore.CreateConversation(ctx, user.ID, nil)
	require.NoError(t, err)
	_, err = s.convStore.CreateConversation(ctx, user.ID, nil)
	require.NoError(t, err)
	// Another user's conversation stays out of the listing.
	_, err = s.convStore.CreateConversation(ctx, uuid.New(), nil)
	require.NoError(t, err)

	c, rec := newTestContext(t, s, user, http.MethodGet, "/", "")
	require.NoError(t, s.listConversations(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Conversations []conversation.Conversation `json:"conversations"`
		Count         int                         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Conversations, 2)
}

func TestGetConversationMessages(t *testing.T) {
	s, user := newTestServer(t)
	ctx := t.Context()

	conv, err := s.convStore.CreateConversation(ctx, user.ID, nil)
	require.NoError(t, err)
	_, err = s.convStore.AddMessage(ctx, conv.ID, conversation.AddMessageParams{
		Role: conversation.RoleUser, Content: "hello",
	})
	require.NoError(t, err)
	_, err = s.convStore.AddMessage(ctx, conv.ID, conversation.AddMessageParams{
		Role: conversation.RoleAssistant, Content: "hi",
	})
	require.NoError(t, err)

	c, rec := newTestContext(t, s, user, http.MethodGet, "/", "")
	c.SetParamNames("conversation_id")
	c.SetParamValues(conv.ID.String())
	require.NoError(t, s.getConversationMessages(c))

	var resp struct {
		Messages []conversation.Message `json:"messages"`
		Count    int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "hello", resp.Messages[0].Content)
}

func TestGetConversationMessages_Errors(t *testing.T) {
	s, user := newTestServer(t)

	c, _ := newTestContext(t, s, user, http.MethodGet, "/", "")
	c.SetParamNames("conversation_id")
	c.SetParamValues("not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, httpErrorCode(t, s.getConversationMessages(c)))

	c, _ = newTestContext(t, s, user, http.MethodGet, "/", "")
	c.SetParamNames("conversation_id")
	c.SetParamValues(uuid.NewString())
	assert.Equal(t, http.StatusNotFound, httpErrorCode(t, s.getConversationMessages(c)))
}

func TestGetConversationMessages_OwnershipEnforced(t *testing.T) {
	s, user := newTestServer(t)

	foreign, err := s.convStore.CreateConversation(t.Context(), uuid.New(), nil)
	require.NoError(t, err)

	c, _ := newTestContext(t, s, user, http.MethodGet, "/", "")
	c.SetParamNames("conversation_id")
	c.SetParamValues(foreign.ID.String())
	assert.Equal(t, http.StatusNotFound, httpErrorCode(t, s.getConversationMessages(c)))
}
