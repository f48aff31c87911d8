package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// routeMap resolves the names and aliases users actually say to the
// frontend route the client should open.
var routeMap = map[string]string{
	"dashboard":   "/dashboard",
	"home":        "/dashboard",
	"tasks":       "/tasks",
	"task list":   "/tasks",
	"todo":        "/tasks",
	"todos":       "/tasks",
	"calendar":    "/calendar",
	"schedule":    "/calendar",
	"analytics":   "/analytics",
	"stats":       "/analytics",
	"statistics":  "/analytics",
	"reports":     "/analytics",
	"settings":    "/settings",
	"profile":     "/settings",
	"preferences": "/settings",
	"evaluations": "/evaluations",
	"reviews":     "/evaluations",
}

// Navigate resolves a page name to a client-side route. It never touches
// storage, so the user id is unused beyond the ToolFunc contract.
func Navigate(ctx context.Context, userID uuid.UUID, args map[string]any) (*Result, error) {
	raw, _ := stringArg(args, "page")
	page := strings.ToLower(strings.TrimSpace(raw))
	if page == "" {
		return Failure(ErrValidation, "Page name is required"), nil
	}

	if route, ok := routeMap[page]; ok {
		return Success(map[string]any{
			"page":  page,
			"route": route,
		}), nil
	}

	// Loose match so "the tasks page" or "my dashboard" still resolve.
	// Longest alias wins so "todos" is not shadowed by "todo".
	aliases := make([]string, 0, len(routeMap))
	for alias := range routeMap {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	for _, alias := range aliases {
		if strings.Contains(page, alias) {
			return Success(map[string]any{
				"page":  alias,
				"route": routeMap[alias],
			}), nil
		}
	}

	return Failure(ErrUnknownPage,
		fmt.Sprintf("Unknown page '%s'. Available pages: %s", page, strings.Join(knownPages(), ", "))), nil
}

// knownPages lists the canonical page names, sorted for stable output.
func knownPages() []string {
	seen := make(map[string]bool)
	pages := make([]string, 0, len(routeMap))
	for _, route := range routeMap {
		name := strings.TrimPrefix(route, "/")
		if !seen[name] {
			seen[name] = true
			pages = append(pages, name)
		}
	}
	sort.Strings(pages)
	return pages
}
