package conversation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/pkg/models"
)

func TestInMemoryStore_CreateConversation(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	conv, err := store.CreateConversation(ctx, userID, nil)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, conv.ID)
	assert.Nil(t, conv.Title)

	got, err := store.GetConversation(ctx, conv.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}

func TestInMemoryStore_ConversationOwnership(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	owner := uuid.New()

	conv, err := store.CreateConversation(ctx, owner, nil)
	require.NoError(t, err)

	_, err = store.GetConversation(ctx, conv.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_SequenceNumbersGapless(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	conv, err := store.CreateConversation(ctx, userID, nil)
	require.NoError(t, err)

	contents := []string{"hello", "hi there", "add a task", "done"}
	roles := []Role{RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	for i := range contents {
		m, err := store.AddMessage(ctx, conv.ID, AddMessageParams{Role: roles[i], Content: contents[i]})
		require.NoError(t, err)
		// Sequence numbers start at 1 and never skip.
		assert.Equal(t, i+1, m.SequenceNumber)
	}

	messages, err := store.GetMessages(ctx, conv.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, m := range messages {
		assert.Equal(t, i+1, m.SequenceNumber)
		assert.Equal(t, contents[i], m.Content)
	}
}

func TestInMemoryStore_AddMessageWithToolCalls(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	conv, err := store.CreateConversation(ctx, userID, nil)
	require.NoError(t, err)

	m, err := store.AddMessage(ctx, conv.ID, AddMessageParams{
		Role:    RoleAssistant,
		Content: "I've added that task.",
		ToolCalls: []models.ToolCallRecord{
			{Tool: "add_task", Arguments: map[string]any{"title": "buy milk"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, m.ToolCalls, 1)
	assert.Equal(t, "add_task", m.ToolCalls[0].Tool)
}

func TestInMemoryStore_AddMessageUnknownConversation(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.AddMessage(context.Background(), uuid.New(), AddMessageParams{
		Role: RoleUser, Content: "lost",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_GetMessagesPagination(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	conv, err := store.CreateConversation(ctx, userID, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := store.AddMessage(ctx, conv.ID, AddMessageParams{Role: RoleUser, Content: "m"})
		require.NoError(t, err)
	}

	page, err := store.GetMessages(ctx, conv.ID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].SequenceNumber)
	assert.Equal(t, 3, page[1].SequenceNumber)
}

func TestInMemoryStore_ListUserConversationsOrder(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	first, err := store.CreateConversation(ctx, userID, nil)
	require.NoError(t, err)
	second, err := store.CreateConversation(ctx, userID, nil)
	require.NoError(t, err)

	// Activity in the older conversation moves it to the front.
	_, err = store.AddMessage(ctx, first.ID, AddMessageParams{Role: RoleUser, Content: "ping"})
	require.NoError(t, err)

	list, err := store.ListUserConversations(ctx, userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestInMemoryStore_SetTitle(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	conv, err := store.CreateConversation(ctx, userID, nil)
	require.NoError(t, err)

	require.NoError(t, store.SetTitle(ctx, conv.ID, userID, "Grocery planning"))

	got, err := store.GetConversation(ctx, conv.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Grocery planning", *got.Title)

	assert.ErrorIs(t, store.SetTitle(ctx, conv.ID, uuid.New(), "hijack"), ErrNotFound)
}
