package tasks

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskchat/pkg/models"
)

var ErrNotFound = errors.New("task not found")

// Store is the persistence contract for tasks. Every operation takes the
// owning user id; a valid task id owned by someone else behaves exactly
// like an absent one.
type Store interface {
	Create(ctx context.Context, t *models.Task) error
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	// ListByUser returns the user's tasks newest-first. completed filters
	// by completion status; nil returns everything.
	ListByUser(ctx context.Context, userID uuid.UUID, completed *bool) ([]*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}
