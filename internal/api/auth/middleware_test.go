package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskchat/pkg/models"
)

func requireSelfContext(user *models.User, pathUserID string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("user_id")
	c.SetParamValues(pathUserID)
	if user != nil {
		c.Set(string(UserContextKey), user)
	}
	return c
}

func runRequireSelf(c echo.Context) error {
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return RequireSelf()(next)(c)
}

func TestRequireSelf_AllowsOwner(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	c := requireSelfContext(user, user.ID.String())

	assert.NoError(t, runRequireSelf(c))
}

func TestRequireSelf_RejectsOtherUser(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	c := requireSelfContext(user, uuid.NewString())

	err := runRequireSelf(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestRequireSelf_InvalidUserID(t *testing.T) {
	user := &models.User{ID: uuid.New()}
	c := requireSelfContext(user, "not-a-uuid")

	err := runRequireSelf(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRequireSelf_MissingUser(t *testing.T) {
	c := requireSelfContext(nil, uuid.NewString())

	err := runRequireSelf(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGetUser(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Nil(t, GetUser(c))

	c.Set(string(UserContextKey), "not a user")
	assert.Nil(t, GetUser(c))

	user := &models.User{ID: uuid.New()}
	c.Set(string(UserContextKey), user)
	assert.Equal(t, user, GetUser(c))
}
