package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stable-sharing/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (s stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return s.claims, s.err
}

func capture(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (auth.Actor, bool) {
	t.Helper()
	var (
		actor auth.Actor
		ok    bool
	)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok = GetActor(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return actor, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "u-1")
	req.Header.Set("X-Debug-Tenant-IDs", "t-1, t-2")

	actor, ok := capture(t, AuthContext(nil), req)
	require.True(t, ok)
	assert.Equal(t, "u-1", actor.ID)
	assert.Equal(t, []string{"t-1", "t-2"}, actor.TenantIDs)
}

func TestAuthContext_VerifierMode(t *testing.T) {
	mw := AuthContext(stubVerifier{claims: auth.Claims{UserID: "u-2", TenantID: "t-9"}})

	good := httptest.NewRequest(http.MethodGet, "/", nil)
	good.Header.Set("Authorization", "Bearer good")
	actor, ok := capture(t, mw, good)
	require.True(t, ok)
	assert.Equal(t, []string{"t-9"}, actor.TenantIDs)

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Authorization", "Bearer nope")
	_, ok = capture(t, mw, bad)
	assert.False(t, ok)

	// en modo verifier los headers de debug se ignoran
	dbg := httptest.NewRequest(http.MethodGet, "/", nil)
	dbg.Header.Set("X-Debug-User-ID", "u-1")
	_, ok = capture(t, mw, dbg)
	assert.False(t, ok)
}
