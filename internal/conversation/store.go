package conversation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskchat/pkg/models"
)

var ErrNotFound = errors.New("conversation not found")

// AddMessageParams carries the caller-supplied fields of a new message.
// The sequence number is always assigned by the store.
type AddMessageParams struct {
	Role       Role
	Content    string
	ToolCalls  []models.ToolCallRecord
	ToolCallID *string
}

// Store is the persistence contract for conversations and their ordered
// messages.
type Store interface {
	CreateConversation(ctx context.Context, userID uuid.UUID, title *string) (*Conversation, error)
	// GetConversation returns ErrNotFound when the conversation is absent,
	// soft-deleted, or owned by a different user.
	GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*Conversation, error)
	// AddMessage assigns max(sequence_number)+1 and bumps the
	// conversation's updated_at in the same transaction.
	AddMessage(ctx context.Context, conversationID uuid.UUID, params AddMessageParams) (*Message, error)
	// GetMessages returns messages in chronological (sequence) order.
	GetMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error)
	// ListUserConversations returns the user's conversations most recently
	// updated first.
	ListUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, error)
	SetTitle(ctx context.Context, conversationID, userID uuid.UUID, title string) error
}
