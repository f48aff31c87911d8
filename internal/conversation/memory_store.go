package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a threadsafe in-memory store for tests
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Conversation
	messages map[uuid.UUID][]*Message
	now      func() time.Time
	tick     int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[uuid.UUID]*Conversation),
		messages: make(map[uuid.UUID][]*Message),
		now:      time.Now,
	}
}

func (s *InMemoryStore) stamp() time.Time {
	s.tick++
	return s.now().Add(time.Duration(s.tick) * time.Microsecond)
}

func (s *InMemoryStore) CreateConversation(ctx context.Context, userID uuid.UUID, title *string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	c := &Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[c.ID] = cloneConversation(c)
	return c, nil
}

func (s *InMemoryStore) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[conversationID]
	if !ok || c.Deleted || c.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneConversation(c), nil
}

func (s *InMemoryStore) AddMessage(ctx context.Context, conversationID uuid.UUID, params AddMessageParams) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	m := &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SequenceNumber: len(s.messages[conversationID]) + 1,
		Role:           params.Role,
		Content:        params.Content,
		ToolCalls:      params.ToolCalls,
		ToolCallID:     params.ToolCallID,
		CreatedAt:      s.stamp(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], cloneMessage(m))
	c.UpdatedAt = m.CreatedAt
	return m, nil
}

func (s *InMemoryStore) GetMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	all := s.messages[conversationID]
	out := make([]*Message, 0)
	for i := offset; i < len(all) && len(out) < limit; i++ {
		if all[i].Deleted {
			continue
		}
		out = append(out, cloneMessage(all[i]))
	}
	return out, nil
}

func (s *InMemoryStore) ListUserConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	all := make([]*Conversation, 0)
	for _, c := range s.byID {
		if c.UserID != userID || c.Deleted {
			continue
		}
		all = append(all, cloneConversation(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	if offset >= len(all) {
		return []*Conversation{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *InMemoryStore) SetTitle(ctx context.Context, conversationID, userID uuid.UUID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[conversationID]
	if !ok || c.Deleted || c.UserID != userID {
		return ErrNotFound
	}
	t := title
	c.Title = &t
	c.UpdatedAt = s.stamp()
	return nil
}

func cloneConversation(c *Conversation) *Conversation {
	cp := *c
	if c.Title != nil {
		t := *c.Title
		cp.Title = &t
	}
	return &cp
}

func cloneMessage(m *Message) *Message {
	cp := *m
	if m.ToolCallID != nil {
		id := *m.ToolCallID
		cp.ToolCallID = &id
	}
	cp.ToolCalls = append(cp.ToolCalls[:0:0], m.ToolCalls...)
	return &cp
}
