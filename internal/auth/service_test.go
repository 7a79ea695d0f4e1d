package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnguerranCA/HabitHisson/internal/user"
)

func newServiceForTests(t *testing.T) (*Service, *user.MemoryRepo) {
	t.Helper()
	users := user.NewMemoryRepo()
	svc := NewService(users, NewMemorySessionRepo(), log.New(io.Discard), Options{
		SessionTTL: 24 * time.Hour,
		// Minimum cost keeps the test fast.
		BcryptCost: 4,
	})
	return svc, users
}

func TestService_SignUpValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTests(t)
	now := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)

	_, _, _, err := svc.SignUp(ctx, "Ana", "not-an-email", "secret1", now)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, _, err = svc.SignUp(ctx, "   ", "ana@example.com", "secret1", now)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, _, _, err = svc.SignUp(ctx, "Ana", "ana@example.com", "short", now)
	assert.ErrorIs(t, err, ErrWeakPassword)

	u, token, exp, err := svc.SignUp(ctx, "Ana", "Ana@Example.com", "secret1", now)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(now))

	_, _, _, err = svc.SignUp(ctx, "Ana Again", "ana@example.com", "secret1", now)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_SignInUniformError(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTests(t)
	now := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)

	_, _, _, err := svc.SignUp(ctx, "Ana", "ana@example.com", "secret1", now)
	require.NoError(t, err)

	// Unknown email and wrong password are indistinguishable.
	_, _, _, err = svc.SignIn(ctx, "nobody@example.com", "secret1", now)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = svc.SignIn(ctx, "ana@example.com", "wrong-pass", now)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, token, _, err := svc.SignIn(ctx, "ANA@example.com", "secret1", now)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEmpty(t, token)
}

func requestWithSession(svc *Service, token string) *http.Request {
	req := httptest.NewRequest("GET", "/api/habits", nil)
	req.AddCookie(&http.Cookie{Name: svc.cookieName, Value: token})
	return req
}

func TestService_AuthenticateRequest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTests(t)
	now := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)

	created, token, exp, err := svc.SignUp(ctx, "Ana", "ana@example.com", "secret1", now)
	require.NoError(t, err)

	u, sess, ok := svc.AuthenticateRequest(requestWithSession(svc, token), now.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, created.ID, u.ID)
	assert.Equal(t, created.ID, sess.UserID)

	// Tampered token fails.
	_, _, ok = svc.AuthenticateRequest(requestWithSession(svc, token+"x"), now.Add(time.Minute))
	assert.False(t, ok)

	// Missing cookie fails.
	_, _, ok = svc.AuthenticateRequest(httptest.NewRequest("GET", "/", nil), now)
	assert.False(t, ok)

	// Expired sessions are rejected and removed.
	_, _, ok = svc.AuthenticateRequest(requestWithSession(svc, token), exp.Add(time.Second))
	assert.False(t, ok)
	_, _, ok = svc.AuthenticateRequest(requestWithSession(svc, token), now.Add(time.Minute))
	assert.False(t, ok, "expired session must not come back")
}

func TestService_RevokeSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTests(t)
	now := time.Date(2026, 2, 7, 9, 0, 0, 0, time.UTC)

	_, token, _, err := svc.SignUp(ctx, "Ana", "ana@example.com", "secret1", now)
	require.NoError(t, err)

	svc.RevokeSessionForRequest(requestWithSession(svc, token))
	_, _, ok := svc.AuthenticateRequest(requestWithSession(svc, token), now.Add(time.Minute))
	assert.False(t, ok)
}

func TestService_RequireAPI(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTests(t)
	now := time.Now()

	created, token, _, err := svc.SignUp(ctx, "Ana", "ana@example.com", "secret1", now)
	require.NoError(t, err)

	var seen user.User
	handler := svc.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		require.True(t, ok)
		seen = u
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithSession(svc, token))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, created.ID, seen.ID)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/habits", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
