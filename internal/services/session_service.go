package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"leadbook/internal/caching"
	"leadbook/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionIssuer = "leadbook"

// SessionClaims represents the signed session token payload
type SessionClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// SessionConfig is the single cookie/token policy for issued sessions
type SessionConfig struct {
	Secret     string
	TTL        time.Duration
	CookieName string
}

// SessionService mints, verifies and revokes session credentials
type SessionService interface {
	Issue(userID uuid.UUID) (string, *SessionClaims, error)
	Verify(ctx context.Context, token string) (*SessionClaims, error)
	Revoke(ctx context.Context, token string) error

	Cookie(token string) *http.Cookie
	ClearCookie() *http.Cookie
	CookieName() string
}

type sessionService struct {
	cfg      SessionConfig
	secret   []byte
	cacheSvc caching.CacheService
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionService creates a session issuer. cacheSvc stores revoked token ids.
func NewSessionService(cfg SessionConfig, cacheSvc caching.CacheService, logger *zap.Logger) SessionService {
	svc := newSessionService(cfg, cacheSvc, time.Now)
	if logger != nil {
		svc.logger = logger
	}
	return svc
}

func newSessionService(cfg SessionConfig, cacheSvc caching.CacheService, now func() time.Time) *sessionService {
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &sessionService{
		cfg:      cfg,
		secret:   []byte(cfg.Secret),
		cacheSvc: cacheSvc,
		logger:   zap.NewNop(),
		now:      now,
	}
}

// Issue signs a new session token for the user
func (s *sessionService) Issue(userID uuid.UUID) (string, *SessionClaims, error) {
	now := s.now()
	claims := &SessionClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, claims, nil
}

// Verify checks signature, issuer, expiry and revocation. When the revocation
// list is unreachable a signed, unexpired token is accepted, as LoginThrottle
// lets requests through.
func (s *sessionService) Verify(ctx context.Context, token string) (*SessionClaims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.cacheSvc.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("session revocation check unavailable",
			zap.String("session_id", claims.ID), zap.Error(err))
		return claims, nil
	}
	if revoked {
		return nil, common.ErrSessionInvalid
	}
	return claims, nil
}

func (s *sessionService) parse(token string) (*SessionClaims, error) {
	if token == "" {
		return nil, common.ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrSessionExpired
		}
		return nil, common.ErrSessionInvalid
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, common.ErrSessionInvalid
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, common.ErrSessionInvalid
	}
	return claims, nil
}

// Revoke remembers the token id until it would have expired anyway.
// Invalid or expired tokens are ignored so logout stays idempotent.
func (s *sessionService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	return s.cacheSvc.RevokeSession(ctx, claims.ID, ttl)
}

// Cookie builds the session cookie: httpOnly, secure, cross-site, TTL-bound.
func (s *sessionService) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.TTL / time.Second),
		Expires:  s.now().Add(s.cfg.TTL),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// ClearCookie builds a cookie that expires the session immediately
func (s *sessionService) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func (s *sessionService) CookieName() string {
	return s.cfg.CookieName
}
