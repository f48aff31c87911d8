package api

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/taskchat/internal/api/auth"
	"github.com/taskchat/internal/tasks"
	"github.com/taskchat/pkg/models"
)

// CreateTaskRequest is the payload for creating a task
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// UpdateTaskRequest is the payload for updating a task; nil fields are
// left unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// CompletionRequest is the payload for toggling completion
type CompletionRequest struct {
	Completed bool `json:"completed"`
}

// listTasks returns the user's tasks, newest first. The optional
// completed query parameter filters by status; omitting it returns all.
func (s *Server) listTasks(c echo.Context) error {
	user := auth.GetUser(c)

	var filter *bool
	switch strings.ToLower(c.QueryParam("completed")) {
	case "":
	case "true":
		v := true
		filter = &v
	case "false":
		v := false
		filter = &v
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "completed must be true or false")
	}

	list, err := s.taskStore.ListByUser(c.Request().Context(), user.ID, filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tasks")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tasks")
	}

	return c.JSON(http.StatusOK, list)
}

func (s *Server) createTask(c echo.Context) error {
	user := auth.GetUser(c)

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if msg := validateTitle(req.Title); msg != "" {
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	if utf8.RuneCountInString(req.Description) > models.MaxDescriptionLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Description must be 1000 characters or less")
	}

	task := &models.Task{
		UserID:      user.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Completed:   req.Completed,
	}
	if err := s.taskStore.Create(c.Request().Context(), task); err != nil {
		log.Error().Err(err).Msg("Failed to create task")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create task")
	}

	return c.JSON(http.StatusCreated, task)
}

func (s *Server) getTask(c echo.Context) error {
	user := auth.GetUser(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID format")
	}

	task, err := s.taskStore.GetByID(c.Request().Context(), user.ID, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to get task")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve task")
	}

	return c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c echo.Context) error {
	user := auth.GetUser(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID format")
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Title == nil && req.Description == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "At least one field (title or description) must be provided")
	}
	if req.Title != nil {
		if msg := validateTitle(*req.Title); msg != "" {
			return echo.NewHTTPError(http.StatusBadRequest, msg)
		}
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > models.MaxDescriptionLength {
		return echo.NewHTTPError(http.StatusBadRequest, "Description must be 1000 characters or less")
	}

	ctx := c.Request().Context()
	task, err := s.taskStore.GetByID(ctx, user.ID, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to get task")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		log.Error().Err(err).Msg("Failed to update task")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	user := auth.GetUser(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID format")
	}

	err = s.taskStore.Delete(c.Request().Context(), user.ID, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete task")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Task deleted successfully",
	})
}

func (s *Server) updateTaskCompletion(c echo.Context) error {
	user := auth.GetUser(c)

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID format")
	}

	var req CompletionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	ctx := c.Request().Context()
	task, err := s.taskStore.GetByID(ctx, user.ID, taskID)
	if errors.Is(err, tasks.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to get task")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	task.Completed = req.Completed
	if err := s.taskStore.Update(ctx, task); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		log.Error().Err(err).Msg("Failed to update task completion")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task")
	}

	return c.JSON(http.StatusOK, task)
}

// validateTitle counts characters, not bytes, so multibyte titles get
// the full 255.
func validateTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Title cannot be empty"
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return "Title must be 255 characters or less"
	}
	return ""
}
