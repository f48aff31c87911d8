package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

// ToolFunc implements one tool. It receives the authenticated user id —
// never a model-supplied one — and the normalized argument map. A
// returned error means the implementation itself failed; expected
// failures (validation, not-found) travel inside the Result.
type ToolFunc func(ctx context.Context, userID uuid.UUID, args map[string]any) (*Result, error)

// Executor dispatches tool calls requested by the chat model. It holds
// the registry for one authenticated user and guarantees that every
// dispatch carries that user's identity, regardless of what the model
// put in the arguments.
type Executor struct {
	userID uuid.UUID
	tools  map[string]ToolFunc
}

func NewExecutor(userID uuid.UUID) *Executor {
	return &Executor{
		userID: userID,
		tools:  make(map[string]ToolFunc),
	}
}

// Register adds a tool implementation under the given name. Registering
// the same name twice replaces the earlier implementation.
func (e *Executor) Register(name string, fn ToolFunc) {
	e.tools[name] = fn
	log.Debug().Str("tool", name).Msg("Registered tool")
}

// RegisteredTools returns the registered tool names.
func (e *Executor) RegisteredTools() []string {
	out := make([]string, 0, len(e.tools))
	for name := range e.tools {
		out = append(out, name)
	}
	return out
}

// Execute runs a tool by name. rawArgs may be a structured map or a
// serialized JSON string straight from the model; normalization happens
// here, once, so the tools themselves only ever see a map. Execute never
// returns a Go error — every failure mode is folded into the envelope.
func (e *Executor) Execute(ctx context.Context, toolName string, rawArgs any) *Result {
	fn, ok := e.tools[toolName]
	if !ok {
		log.Error().Str("tool", toolName).Stringer("user_id", e.userID).Msg("Unknown tool requested")
		return Failure(ErrUnknownTool, fmt.Sprintf("Tool '%s' not found", toolName))
	}

	args, err := normalizeArguments(rawArgs)
	if err != nil {
		log.Error().Err(err).Str("tool", toolName).Stringer("user_id", e.userID).Msg("Failed to parse tool arguments")
		return Failure(ErrExecution, fmt.Sprintf("Failed to execute %s: invalid arguments", toolName))
	}

	// The model must not be able to act as another user. Any identity it
	// supplied is discarded; the authenticated id is passed explicitly.
	delete(args, "user_id")

	log.Info().Str("tool", toolName).Stringer("user_id", e.userID).Msg("Executing tool")

	result, err := fn(ctx, e.userID, args)
	if err != nil {
		log.Error().Err(err).Str("tool", toolName).Stringer("user_id", e.userID).Msg("Tool execution error")
		return Failure(ErrExecution, fmt.Sprintf("Failed to execute %s: %s", toolName, err))
	}
	if result == nil {
		return Failure(ErrExecution, fmt.Sprintf("Failed to execute %s: empty result", toolName))
	}

	log.Debug().Str("tool", toolName).Str("status", result.Status).Msg("Tool finished")
	return result
}

// normalizeArguments accepts the argument payload in whichever shape the
// model produced it. Strings get one parse attempt, with jsonrepair as
// the fallback for the slightly-broken JSON some models emit.
func normalizeArguments(rawArgs any) (map[string]any, error) {
	switch v := rawArgs.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case json.RawMessage:
		return parseArgumentString(string(v))
	case []byte:
		return parseArgumentString(string(v))
	case string:
		return parseArgumentString(v)
	default:
		return nil, fmt.Errorf("unsupported argument payload type %T", rawArgs)
	}
}

func parseArgumentString(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return args, nil
}
