package tools

import (
	"github.com/tmc/langchaingo/llms"
)

// Definitions returns the tool schemas advertised to the chat model.
// Names here must match the names registered on the executor.
func Definitions() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "add_task",
				Description: "Create a new task for the user. Use this when the user wants to add, create, or remember something to do.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Short title of the task (required, max 255 characters)",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "Optional longer description of the task (max 1000 characters)",
						},
						"completed": map[string]any{
							"type":        "boolean",
							"description": "Whether the task starts out completed (default false)",
						},
					},
					"required": []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "list_tasks",
				Description: "List the user's tasks, newest first. Use this when the user asks what they have to do or wants to see their tasks.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"completed": map[string]any{
							"type":        "boolean",
							"description": "Filter by completion status: true for completed tasks, false for pending. Omit for all tasks.",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "complete_task",
				Description: "Mark a task as completed, or as pending again when completed is false. Find the task id with list_tasks first if you only know the title.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"task_id": map[string]any{
							"type":        "string",
							"description": "UUID of the task to update",
						},
						"completed": map[string]any{
							"type":        "boolean",
							"description": "Completion status to set (default true)",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "delete_task",
				Description: "Permanently delete a task. Find the task id with list_tasks first if you only know the title.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"task_id": map[string]any{
							"type":        "string",
							"description": "UUID of the task to delete",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "update_task",
				Description: "Change a task's title and/or description. At least one of the two fields must be provided.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"task_id": map[string]any{
							"type":        "string",
							"description": "UUID of the task to update",
						},
						"title": map[string]any{
							"type":        "string",
							"description": "New title (max 255 characters)",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "New description (max 1000 characters)",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "navigate",
				Description: "Resolve a page of the application to its route so the client can open it. Use when the user asks to go somewhere, e.g. 'take me to my tasks'.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"page": map[string]any{
							"type":        "string",
							"description": "Name of the page, e.g. dashboard, tasks, calendar, analytics, settings, evaluations",
						},
					},
					"required": []string{"page"},
				},
			},
		},
	}
}
