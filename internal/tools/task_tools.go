package tools

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/taskchat/internal/tasks"
	"github.com/taskchat/pkg/models"
)

// TaskTools implements the five task-management tools on top of the task
// store. Each method is a ToolFunc; the executor supplies the
// authenticated user id.
type TaskTools struct {
	store tasks.Store
}

func NewTaskTools(store tasks.Store) *TaskTools {
	return &TaskTools{store: store}
}

// RegisterAll wires every task tool plus navigate into the executor.
func RegisterAll(e *Executor, store tasks.Store) {
	t := NewTaskTools(store)
	e.Register("add_task", t.AddTask)
	e.Register("list_tasks", t.ListTasks)
	e.Register("complete_task", t.CompleteTask)
	e.Register("delete_task", t.DeleteTask)
	e.Register("update_task", t.UpdateTask)
	e.Register("navigate", Navigate)
}

// AddTask creates a new task owned by the calling user.
func (t *TaskTools) AddTask(ctx context.Context, userID uuid.UUID, args map[string]any) (*Result, error) {
	title, _ := stringArg(args, "title")
	if strings.TrimSpace(title) == "" {
		return Failure(ErrValidation, "Task title cannot be empty"), nil
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return Failure(ErrValidation, "Task title must be 255 characters or less"), nil
	}

	description, _ := stringArg(args, "description")
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return Failure(ErrValidation, "Task description must be 1000 characters or less"), nil
	}

	completed, _ := boolArg(args, "completed")

	task := &models.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Completed:   completed,
	}
	if err := t.store.Create(ctx, task); err != nil {
		return Failure(ErrDatabase, "Failed to create task"), nil
	}

	return Success(taskData(task)), nil
}

// ListTasks returns the user's tasks, optionally filtered by completion
// status, newest first.
func (t *TaskTools) ListTasks(ctx context.Context, userID uuid.UUID, args map[string]any) (*Result, error) {
	var filter *bool
	filterLabel := "all"
	if completed, ok := boolArg(args, "completed"); ok {
		filter = &completed
		if completed {
			filterLabel = "completed"
		} else {
			filterLabel = "pending"
		}
	}

	list, err := t.store.ListByUser(ctx, userID, filter)
	if err != nil {
		return Failure(ErrDatabase, "Failed to retrieve tasks"), nil
	}

	items := make([]map[string]any, 0, len(list))
	for _, task := range list {
		items = append(items, taskData(task))
	}

	return Success(map[string]any{
		"tasks":  items,
		"count":  len(items),
		"filter": filterLabel,
	}), nil
}

// CompleteTask marks a task complete (or incomplete when the model asks
// for it explicitly).
func (t *TaskTools) CompleteTask(ctx context.Context, userID uuid.UUID, args map[string]any) (*Result, error) {
	taskID, res := taskIDArg(args)
	if res != nil {
		return res, nil
	}

	completed := true
	if v, ok := boolArg(args, "completed"); ok {
		completed = v
	}

	task, err := t.store.GetByID(ctx, userID, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		return Failure(ErrNotFound, "Task not found"), nil
	}
	if err != nil {
		return Failure(ErrDatabase, "Failed to update task completion status"), nil
	}

	task.Completed = completed
	if err := t.store.Update(ctx, task); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return Failure(ErrNotFound, "Task not found"), nil
		}
		return Failure(ErrDatabase, "Failed to update task completion status"), nil
	}

	return Success(taskData(task)), nil
}

// DeleteTask permanently removes a task.
func (t *TaskTools) DeleteTask(ctx context.Context, userID uuid.UUID, args map[string]any) (*Result, error) {
	taskID, res := taskIDArg(args)
	if res != nil {
		return res, nil
	}

	task, err := t.store.GetByID(ctx, userID, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		return Failure(ErrNotFound, "Task not found"), nil
	}
	if err != nil {
		return Failure(ErrDatabase, "Failed to delete task"), nil
	}

	if err := t.store.Delete(ctx, userID, taskID); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return Failure(ErrNotFound, "Task not found"), nil
		}
		return Failure(ErrDatabase, "Failed to delete task"), nil
	}

	return Success(map[string]any{
		"id":      task.ID.String(),
		"title":   task.Title,
		"message": "Task deleted successfully",
	}), nil
}

// UpdateTask changes a task's title and/or description. At least one of
// the two must be supplied.
func (t *TaskTools) UpdateTask(ctx context.Context, userID uuid.UUID, args map[string]any) (*Result, error) {
	title, hasTitle := stringArg(args, "title")
	description, hasDescription := stringArg(args, "description")

	if !hasTitle && !hasDescription {
		return Failure(ErrValidation, "At least one field (title or description) must be provided"), nil
	}

	if hasTitle {
		if strings.TrimSpace(title) == "" {
			return Failure(ErrValidation, "Task title cannot be empty"), nil
		}
		if utf8.RuneCountInString(title) > models.MaxTitleLength {
			return Failure(ErrValidation, "Task title must be 255 characters or less"), nil
		}
	}
	if hasDescription && utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return Failure(ErrValidation, "Task description must be 1000 characters or less"), nil
	}

	taskID, res := taskIDArg(args)
	if res != nil {
		return res, nil
	}

	task, err := t.store.GetByID(ctx, userID, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		return Failure(ErrNotFound, "Task not found"), nil
	}
	if err != nil {
		return Failure(ErrDatabase, "Failed to update task"), nil
	}

	updatedFields := make([]string, 0, 2)
	if hasTitle {
		task.Title = strings.TrimSpace(title)
		updatedFields = append(updatedFields, "title")
	}
	if hasDescription {
		task.Description = strings.TrimSpace(description)
		updatedFields = append(updatedFields, "description")
	}

	if err := t.store.Update(ctx, task); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return Failure(ErrNotFound, "Task not found"), nil
		}
		return Failure(ErrDatabase, "Failed to update task"), nil
	}

	data := taskData(task)
	data["updated_fields"] = updatedFields
	return Success(data), nil
}

func taskData(t *models.Task) map[string]any {
	return map[string]any{
		"id":          t.ID.String(),
		"title":       t.Title,
		"description": t.Description,
		"completed":   t.Completed,
		"created_at":  t.CreatedAt.Format(time.RFC3339),
		"updated_at":  t.UpdatedAt.Format(time.RFC3339),
	}
}

// taskIDArg extracts and validates the task_id argument. A malformed id
// is a validation failure, never a crash.
func taskIDArg(args map[string]any) (uuid.UUID, *Result) {
	raw, ok := stringArg(args, "task_id")
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, Failure(ErrValidation, "Task ID is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, Failure(ErrValidation, "Invalid task ID format")
	}
	return id, nil
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func boolArg(args map[string]any, key string) (bool, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		// Some models serialize booleans as strings.
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
