package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskchat/pkg/models"
)

// InMemoryStore is a threadsafe in-memory store for tests
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*models.Task
	now  func() time.Time
	seq  int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID: make(map[uuid.UUID]*models.Task),
		now:  time.Now,
	}
}

func (s *InMemoryStore) Create(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	// Monotonic creation times so newest-first ordering is deterministic
	// even when tasks are created within the same wall-clock tick.
	s.seq++
	t.CreatedAt = s.now().Add(time.Duration(s.seq) * time.Microsecond)
	t.UpdatedAt = t.CreatedAt
	s.byID[t.ID] = cloneTask(t)
	return nil
}

func (s *InMemoryStore) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[taskID]
	if !ok || t.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneTask(t), nil
}

func (s *InMemoryStore) ListByUser(ctx context.Context, userID uuid.UUID, completed *bool) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Task, 0)
	for _, t := range s.byID {
		if t.UserID != userID {
			continue
		}
		if completed != nil && t.Completed != *completed {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.byID[t.ID]
	if !ok || old.UserID != t.UserID {
		return ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = s.now()
	s.byID[t.ID] = cloneTask(t)
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[taskID]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(s.byID, taskID)
	return nil
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	return &c
}
