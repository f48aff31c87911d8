package auth

import (
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableDB opens a pool against a port nothing listens on; queries
// fail fast without needing a real server.
func unreachableDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", "postgres://taskchat@127.0.0.1:1/taskchat?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewTokenService_Defaults(t *testing.T) {
	ts := NewTokenService(nil, "secret")

	assert.Equal(t, 15*time.Minute, ts.AccessTokenDuration)
	assert.Equal(t, 30*24*time.Hour, ts.RefreshTokenDuration)
	assert.Equal(t, time.Hour, ts.CleanupInterval)
}

func TestHashToken(t *testing.T) {
	ts := NewTokenService(nil, "secret")

	h := ts.hashToken("some-token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, ts.hashToken("some-token"))
	assert.NotEqual(t, h, ts.hashToken("other-token"))
}

func TestParseTokenClaims(t *testing.T) {
	ts := NewTokenService(nil, "secret")
	userID := uuid.New()

	claims := &JWTClaims{
		UserID:    userID,
		Email:     "test@example.com",
		TokenHash: ts.hashToken("session-token"),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "taskchat",
			Subject:   userID.String(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secretKey)
	require.NoError(t, err)

	got, err := ts.parseTokenClaims(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, claims.TokenHash, got.TokenHash)

	// A token signed with a different key is rejected.
	other := NewTokenService(nil, "different-secret")
	_, err = other.parseTokenClaims(signed)
	assert.Error(t, err)
}

func TestCleanupExpiredTokens_DatabaseFailure(t *testing.T) {
	ts := NewTokenService(unreachableDB(t), "secret")

	err := ts.CleanupExpiredTokens()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cleanup expired tokens")
}

func TestStartCleanupScheduler_SurvivesFailures(t *testing.T) {
	ts := NewTokenService(unreachableDB(t), "secret")
	ts.CleanupInterval = 10 * time.Millisecond

	// The sweep fails against the dead database; the scheduler must log
	// and keep ticking rather than crash.
	ts.StartCleanupScheduler()
	time.Sleep(35 * time.Millisecond)
}
