package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that owns tasks and conversations
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose password hash in JSON
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Task is a single todo item owned by exactly one user.
// Mutations go through the task store or the chat tools, both of which
// filter by the owning user id.
type Task struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Completed   bool      `json:"completed" db:"completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ToolCallRecord is one tool invocation made by the assistant during a
// chat turn, kept for the API response and persisted on the assistant
// message that triggered it.
type ToolCallRecord struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Task field limits shared by the HTTP handlers and the chat tools.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
)
