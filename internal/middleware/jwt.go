package middleware

import (
	"strings"

	"leadbook/internal/common"
	"leadbook/internal/models"
	"leadbook/internal/services"

	"github.com/labstack/echo/v4"
)

const (
	userContextKey  = "user"
	tokenContextKey = "session_token"
)

// SessionToken reads the session credential from the cookie, falling back
// to an "Authorization: Bearer" header.
func SessionToken(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// SessionAuth rejects requests without a valid session and loads the
// session user into the request context.
func SessionAuth(authSvc services.AuthService, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c, cookieName)
			if token == "" {
				return common.ErrUnauthenticated
			}

			user, err := authSvc.CurrentUser(c.Request().Context(), token)
			if err != nil {
				return err
			}

			ctx := common.WithUserID(c.Request().Context(), user.ID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(userContextKey, user)
			c.Set(tokenContextKey, token)

			return next(c)
		}
	}
}

// CurrentUser returns the user loaded by SessionAuth
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(userContextKey).(*models.User)
	return user, ok && user != nil
}
