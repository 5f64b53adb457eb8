package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadbook/internal/common"
	"leadbook/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenAuth accepts exactly one token
type tokenAuth struct {
	token string
	user  *models.User
}

func (a tokenAuth) Register(context.Context, models.RegisterInput) (*models.User, string, error) {
	return nil, "", nil
}

func (a tokenAuth) Login(context.Context, models.LoginInput) (*models.User, string, error) {
	return nil, "", nil
}

func (a tokenAuth) Logout(context.Context, string) error { return nil }

func (a tokenAuth) CurrentUser(_ context.Context, token string) (*models.User, error) {
	if token != a.token {
		return nil, common.ErrSessionInvalid
	}
	return a.user, nil
}

func TestSessionToken(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	assert.Equal(t, "from-cookie", SessionToken(e.NewContext(req, nil), "token"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	assert.Equal(t, "from-header", SessionToken(e.NewContext(req, nil), "token"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Basic abc")
	assert.Equal(t, "", SessionToken(e.NewContext(req, nil), "token"))
}

func TestSessionAuth(t *testing.T) {
	user := &models.User{ID: uuid.New(), Name: "Grace", Email: "grace@navy.mil"}
	auth := tokenAuth{token: "good", user: user}

	var seen *models.User
	var seenID uuid.UUID
	handler := SessionAuth(auth, "token")(func(c echo.Context) error {
		seen, _ = CurrentUser(c)
		seenID, _ = common.GetUserIDFromContext(c.Request().Context())
		return nil
	})

	e := echo.New()
	run := func(cookie string) error {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "token", Value: cookie})
		}
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	assert.ErrorIs(t, run(""), common.ErrUnauthenticated)
	assert.ErrorIs(t, run("forged"), common.ErrSessionInvalid)
	assert.Nil(t, seen)

	require.NoError(t, run("good"))
	assert.Equal(t, user, seen)
	assert.Equal(t, user.ID, seenID)
}
