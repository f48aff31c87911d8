package tools

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigate_KnownPages(t *testing.T) {
	cases := map[string]string{
		"dashboard":   "/dashboard",
		"home":        "/dashboard",
		"tasks":       "/tasks",
		"todos":       "/tasks",
		"schedule":    "/calendar",
		"stats":       "/analytics",
		"preferences": "/settings",
		"reviews":     "/evaluations",
	}

	for page, route := range cases {
		result, err := Navigate(context.Background(), uuid.New(), map[string]any{"page": page})
		require.NoError(t, err)
		require.True(t, result.IsSuccess(), "page %q", page)
		assert.Equal(t, route, result.Data["route"], "page %q", page)
	}
}

func TestNavigate_CaseAndWhitespace(t *testing.T) {
	result, err := Navigate(context.Background(), uuid.New(), map[string]any{"page": "  Dashboard  "})
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, "/dashboard", result.Data["route"])
}

func TestNavigate_SubstringFallback(t *testing.T) {
	result, err := Navigate(context.Background(), uuid.New(), map[string]any{"page": "the tasks page"})
	require.NoError(t, err)
	require.True(t, result.IsSuccess())
	assert.Equal(t, "/tasks", result.Data["route"])
}

func TestNavigate_UnknownPage(t *testing.T) {
	result, err := Navigate(context.Background(), uuid.New(), map[string]any{"page": "narnia"})
	require.NoError(t, err)
	assert.Equal(t, ErrUnknownPage, result.Error)
	assert.Contains(t, result.Message, "narnia")
	assert.Contains(t, result.Message, "dashboard")
}

func TestNavigate_MissingPage(t *testing.T) {
	result, err := Navigate(context.Background(), uuid.New(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, ErrValidation, result.Error)
}
