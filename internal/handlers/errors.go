package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"leadbook/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// resolveError maps an error to its status code and client message
func resolveError(err error) (int, string) {
	var (
		verr *common.ValidationError
		derr *common.DuplicateKeyError
		herr *echo.HTTPError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &derr):
		return http.StatusBadRequest, derr.Error()
	case errors.Is(err, common.ErrDuplicateKey):
		return http.StatusBadRequest, "Duplicate value entered"
	case errors.Is(err, common.ErrInvalidID):
		return http.StatusBadRequest, "Invalid id"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, "Please login to access this resource"
	case errors.Is(err, common.ErrSessionExpired):
		return http.StatusUnauthorized, "JWT has expired"
	case errors.Is(err, common.ErrSessionInvalid):
		return http.StatusUnauthorized, "JWT is invalid"
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many login attempts, please try again later"
	case errors.As(err, &herr):
		if msg, ok := herr.Message.(string); ok {
			return herr.Code, msg
		}
		return herr.Code, http.StatusText(herr.Code)
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// NewHTTPErrorHandler renders every error as {success:false, message}.
// Server errors are logged; the client only sees a generic message.
func NewHTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := resolveError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, ErrorResponse{Success: false, Message: message})
		}
		if err != nil {
			logger.Warn("failed to write error response", zap.Error(err))
		}
	}
}

// notFound replaces a bare ErrNotFound with a resource specific message
func notFound(err error, resource string) error {
	if errors.Is(err, common.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s not found", resource))
	}
	return err
}
