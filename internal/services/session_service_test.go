package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"leadbook/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeCache is an in-memory CacheService
type fakeCache struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	hits    map[string]int
	err     error // returned by the revocation calls when set
}

func newFakeCache() *fakeCache {
	return &fakeCache{revoked: map[string]time.Duration{}, hits: map[string]int{}}
}

func (f *fakeCache) RevokeSession(_ context.Context, id string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if ttl > 0 {
		f.revoked[id] = ttl
	}
	return nil
}

func (f *fakeCache) IsSessionRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[id]
	return ok, nil
}

func (f *fakeCache) IsRateLimited(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits[key]++
	return f.hits[key] > limit, nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }
func (f *fakeCache) Close() error               { return nil }

func newTestSessions(now func() time.Time) (*sessionService, *fakeCache) {
	cache := newFakeCache()
	return newSessionService(SessionConfig{Secret: "test-secret"}, cache, now), cache
}

func TestSessionService_IssueAndVerify(t *testing.T) {
	svc, _ := newTestSessions(time.Now)
	userID := uuid.New()

	token, claims, err := svc.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "leadbook", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	verified, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), verified.UserID)
}

func TestSessionService_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-8 * 24 * time.Hour)
	issuer, _ := newTestSessions(func() time.Time { return issuedAt })
	token, _, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	verifier, _ := newTestSessions(time.Now)
	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestSessionService_RejectsTampering(t *testing.T) {
	svc, _ := newTestSessions(time.Now)

	_, err := svc.Verify(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	_, err = svc.Verify(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, common.ErrSessionInvalid)

	other := newSessionService(SessionConfig{Secret: "another-secret"}, newFakeCache(), time.Now)
	token, _, err := other.Issue(uuid.New())
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrSessionInvalid)

	// alg=none must never be accepted
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &SessionClaims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "leadbook",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), noneToken)
	assert.ErrorIs(t, err, common.ErrSessionInvalid)
}

func TestSessionService_Revoke(t *testing.T) {
	svc, cache := newTestSessions(time.Now)
	token, claims, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), token))
	assert.Contains(t, cache.revoked, claims.ID)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrSessionInvalid)

	// revoking garbage or twice is harmless
	assert.NoError(t, svc.Revoke(context.Background(), "garbage"))
	assert.NoError(t, svc.Revoke(context.Background(), token))
}

func TestSessionService_VerifyFailsOpenWithoutCache(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc, cache := newTestSessions(time.Now)
	svc.logger = zap.New(core)

	userID := uuid.New()
	token, _, err := svc.Issue(userID)
	require.NoError(t, err)

	cache.err = errors.New("redis: connection refused")
	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, 1, logs.FilterMessage("session revocation check unavailable").Len())

	// signature checks still apply
	_, err = svc.Verify(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, common.ErrSessionInvalid)

	assert.EqualError(t, svc.Revoke(context.Background(), token), "redis: connection refused")
}

func TestSessionService_CookiePolicy(t *testing.T) {
	svc, _ := newTestSessions(time.Now)

	cookie := svc.Cookie("abc")
	assert.Equal(t, "token", cookie.Name)
	assert.Equal(t, "abc", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)

	cleared := svc.ClearCookie()
	assert.Equal(t, "token", cleared.Name)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.True(t, cleared.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, cleared.SameSite)
}
