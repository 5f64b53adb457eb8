package handlers

import (
	"errors"
	"net/http"

	"leadbook/internal/common"
	"leadbook/internal/middleware"
	"leadbook/internal/models"
	"leadbook/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authService services.AuthService
	sessions    services.SessionService
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, sessions services.SessionService) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		sessions:    sessions,
	}
}

// UserResponse wraps the public identity of the session user
type UserResponse struct {
	Success bool              `json:"success"`
	User    models.PublicUser `json:"user"`
}

// MessageResponse is a success acknowledgement
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register creates an account and starts a session
func (h *AuthHandlers) Register(c echo.Context) error {
	var req models.RegisterInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, token, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		middleware.RecordAuthAttempt("register", outcome(err))
		return err
	}
	middleware.RecordAuthAttempt("register", "success")

	c.SetCookie(h.sessions.Cookie(token))
	return c.JSON(http.StatusCreated, UserResponse{Success: true, User: user.Public()})
}

// Login handles user login with email and password
func (h *AuthHandlers) Login(c echo.Context) error {
	var req models.LoginInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, token, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		middleware.RecordAuthAttempt("login", outcome(err))
		return err
	}
	middleware.RecordAuthAttempt("login", "success")

	c.SetCookie(h.sessions.Cookie(token))
	return c.JSON(http.StatusOK, UserResponse{Success: true, User: user.Public()})
}

// Logout expires the session cookie. It succeeds with or without a session.
func (h *AuthHandlers) Logout(c echo.Context) error {
	token := middleware.SessionToken(c, h.sessions.CookieName())
	c.SetCookie(h.sessions.ClearCookie())
	if err := h.authService.Logout(c.Request().Context(), token); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}

// Me returns the session user
func (h *AuthHandlers) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return common.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, UserResponse{Success: true, User: user.Public()})
}

func outcome(err error) string {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, common.ErrDuplicateKey):
		return "duplicate"
	case errors.Is(err, common.ErrInvalidCredentials):
		return "rejected"
	}
	return "error"
}
