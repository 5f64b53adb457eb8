package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"leadbook/internal/caching"
	"leadbook/internal/common"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxThrottleBodyBytes = 1 << 20

// LoginThrottle limits login attempts per client IP and email. When the
// cache is unreachable the request is let through.
func LoginThrottle(cacheSvc caching.CacheService, limit int, window time.Duration, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limit <= 0 {
				return next(c)
			}

			key := "login:" + c.RealIP() + ":" + peekEmail(c)
			limited, err := cacheSvc.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				logger.Warn("login throttle unavailable", zap.Error(err))
				return next(c)
			}
			if limited {
				RecordAuthAttempt("login", "throttled")
				return common.ErrRateLimited
			}
			return next(c)
		}
	}
}

// peekEmail reads the email from a JSON body and restores the body for the
// handler. Only a prefix is read; the remainder stays on the original body.
func peekEmail(c echo.Context) string {
	req := c.Request()
	if req.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, maxThrottleBodyBytes))
	req.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(body), req.Body), req.Body}
	if err != nil {
		return ""
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return common.NormalizeEmail(payload.Email)
}
