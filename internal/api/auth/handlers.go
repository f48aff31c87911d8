package auth

import (
	"database/sql"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskchat/pkg/models"
)

// Handler serves the authentication endpoints.
type Handler struct {
	db           *sql.DB
	tokenService *TokenService
}

func NewHandler(db *sql.DB, tokenService *TokenService) *Handler {
	return &Handler{db: db, tokenService: tokenService}
}

// RegisterRequest is the payload for user registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest optionally asks for a logout from every device
type LogoutRequest struct {
	All bool `json:"all"`
}

// AuthResponse is returned from register, login and refresh
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    string       `json:"expires_at"`
	User         UserResponse `json:"user"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// hashPassword securely hashes a password using bcrypt
func hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// comparePasswords checks if the provided password matches the hashed password
func comparePasswords(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// Register creates a new user account and logs it in.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid email address")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters long")
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{}
	err = h.db.QueryRow(`
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at, updated_at
	`, req.Email, passwordHash).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
		}
		log.Error().Err(err).Msg("Failed to create user")
		return echo.NewHTTPError(http.StatusInternalServerError, "Registration failed")
	}

	log.Info().Str("email", user.Email).Msg("User registered")
	return h.respondWithTokens(c, http.StatusCreated, user)
}

// Login authenticates a user by email and password.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user := &models.User{}
	err := h.db.QueryRow(`
		SELECT id, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`, req.Email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Same response as a bad password; no user enumeration.
			return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
		}
		log.Error().Err(err).Msg("Failed to look up user")
		return echo.NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	if !comparePasswords(user.PasswordHash, req.Password) {
		log.Warn().Str("email", req.Email).Msg("Login failed: invalid credentials")
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}

	log.Info().Str("email", user.Email).Msg("User logged in")
	return h.respondWithTokens(c, http.StatusOK, user)
}

// Logout revokes the presented access token. With {"all": true} every
// active token of the user is revoked, logging out all devices.
func (h *Handler) Logout(c echo.Context) error {
	var req LogoutRequest
	// The body is optional; a bind failure just means a plain logout.
	_ = c.Bind(&req)

	authHeader := c.Request().Header.Get("Authorization")
	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
		if req.All {
			if claims, err := h.tokenService.parseTokenClaims(tokenParts[1]); err == nil {
				if err := h.tokenService.RevokeAllUserTokens(claims.UserID); err != nil {
					log.Warn().Err(err).Msg("Failed to revoke user tokens on logout")
				}
			}
		} else if err := h.tokenService.RevokeAccessToken(tokenParts[1]); err != nil {
			log.Warn().Err(err).Msg("Failed to revoke token on logout")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}

// Refresh exchanges a refresh token for a new token pair.
func (h *Handler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Refresh token is required")
	}

	pair, err := h.tokenService.RefreshTokenPair(req.RefreshToken, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) respondWithTokens(c echo.Context, status int, user *models.User) error {
	pair, err := h.tokenService.CreateTokenPair(user, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		log.Error().Err(err).Msg("Failed to create token pair")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	return c.JSON(status, AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresAt:    pair.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		User: UserResponse{
			ID:    user.ID.String(),
			Email: user.Email,
		},
	})
}
