package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/taskchat/pkg/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) CreateConversation(ctx context.Context, userID uuid.UUID, title *string) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO conversations (user_id, title)
        VALUES ($1, $2)
        RETURNING id, user_id, title, created_at, updated_at, deleted
    `, userID, title).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.Deleted)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx, `
        SELECT id, user_id, title, created_at, updated_at, deleted
        FROM conversations
        WHERE id=$1 AND user_id=$2 AND deleted=FALSE
    `, conversationID, userID).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, conversationID uuid.UUID, params AddMessageParams) (*Message, error) {
	var tcJSON []byte
	var err error
	if len(params.ToolCalls) > 0 {
		tcJSON, err = json.Marshal(params.ToolCalls)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m := &Message{
		ConversationID: conversationID,
		Role:           params.Role,
		Content:        params.Content,
		ToolCalls:      params.ToolCalls,
		ToolCallID:     params.ToolCallID,
	}

	// Sequence assignment and insert happen in one statement so the
	// UNIQUE (conversation_id, sequence_number) constraint is the only
	// arbiter under concurrent writers.
	err = tx.QueryRowContext(ctx, `
        INSERT INTO messages (conversation_id, sequence_number, role, content, tool_calls, tool_call_id)
        SELECT $1, COALESCE(MAX(sequence_number), 0) + 1, $2, $3, $4, $5
        FROM messages WHERE conversation_id=$1
        RETURNING id, sequence_number, created_at
    `, conversationID, string(m.Role), m.Content, nullIfEmptyBytes(tcJSON), m.ToolCallID).
		Scan(&m.ID, &m.SequenceNumber, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE conversations SET updated_at=NOW() WHERE id=$1
    `, conversationID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) GetMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, conversation_id, sequence_number, role, content, tool_calls, tool_call_id, created_at, deleted
        FROM messages
        WHERE conversation_id=$1 AND deleted=FALSE
        ORDER BY sequence_number
        LIMIT $2 OFFSET $3
    `, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, title, created_at, updated_at, deleted
        FROM conversations
        WHERE user_id=$1 AND deleted=FALSE
        ORDER BY updated_at DESC
        LIMIT $2 OFFSET $3
    `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Conversation, 0)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt, &c.Deleted); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetTitle(ctx context.Context, conversationID, userID uuid.UUID, title string) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE conversations SET title=$1, updated_at=NOW()
        WHERE id=$2 AND user_id=$3 AND deleted=FALSE
    `, title, conversationID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMessage(scanner interface{ Scan(dest ...any) error }) (*Message, error) {
	var m Message
	var role string
	var tcJSON sql.NullString
	if err := scanner.Scan(&m.ID, &m.ConversationID, &m.SequenceNumber, &role, &m.Content, &tcJSON, &m.ToolCallID, &m.CreatedAt, &m.Deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Role = Role(role)
	if tcJSON.Valid && tcJSON.String != "" {
		var tcs []models.ToolCallRecord
		if err := json.Unmarshal([]byte(tcJSON.String), &tcs); err == nil {
			m.ToolCalls = tcs
		}
	}
	return &m, nil
}

func nullIfEmptyBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
