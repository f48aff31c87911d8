package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskchat/pkg/models"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	UserContextKey ContextKey = "user"
)

// RequireAuth validates the Bearer token on every request and stores the
// authenticated user in the echo context.
func RequireAuth(tokenService *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			user, err := tokenService.ValidateAccessToken(tokenParts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(string(UserContextKey), user)
			return next(c)
		}
	}
}

// RequireSelf ensures the :user_id path parameter names the authenticated
// user. A mismatch is a 403, not a 404, so callers learn they may not act
// for other users rather than guessing at resource existence.
func RequireSelf() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not found in context")
			}

			pathUserID, err := uuid.Parse(c.Param("user_id"))
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
			}

			if pathUserID != user.ID {
				return echo.NewHTTPError(http.StatusForbidden, "Cannot access another user's resources")
			}

			return next(c)
		}
	}
}

// GetUser extracts user from echo context
func GetUser(c echo.Context) *models.User {
	userInterface := c.Get(string(UserContextKey))
	if userInterface == nil {
		return nil
	}
	user, ok := userInterface.(*models.User)
	if !ok {
		return nil
	}
	return user
}
