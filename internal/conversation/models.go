package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/pkg/models"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool marks tool-result messages. They are internal transcript
	// state and are never rendered to the end user.
	RoleTool Role = "tool"
)

// Conversation is a chat thread owned by exactly one user. Rows are
// soft-deleted; a deleted conversation is invisible to every lookup.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     *string   `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Deleted   bool      `json:"-"`
}

// Message is one entry in a conversation transcript, ordered by the
// store-assigned sequence number (1-based, strictly increasing, no gaps
// under single-writer access).
type Message struct {
	ID             uuid.UUID               `json:"id"`
	ConversationID uuid.UUID               `json:"conversation_id"`
	SequenceNumber int                     `json:"sequence_number"`
	Role           Role                    `json:"role"`
	Content        string                  `json:"content"`
	ToolCalls      []models.ToolCallRecord `json:"tool_calls,omitempty"`
	ToolCallID     *string                 `json:"tool_call_id,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	Deleted        bool                    `json:"-"`
}
