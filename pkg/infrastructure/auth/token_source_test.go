package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetCredential_NotSignedIn(t *testing.T) {
	src := NewSecureTokenSource("key", nil)

	_, err := src.GetCredential(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = src.PrincipalID(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetCredential_RefreshesEveryCall(t *testing.T) {
	var calls atomic.Int32
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "api-key", r.URL.Query().Get("key"))
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		if n == 1 {
			assert.Equal(t, "rt-1", r.PostForm.Get("refresh_token"))
		} else {
			assert.Equal(t, "rt-2", r.PostForm.Get("refresh_token"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id_token":"id-%d","refresh_token":"rt-2","expires_in":"3600","token_type":"Bearer","user_id":"uid-1"}`, n)
	})

	src := NewSecureTokenSource("api-key", srv.Client()).WithTokenURL(srv.URL)
	src.SignIn(Session{Email: "patient@example.com", RefreshToken: "rt-1"})

	first, err := src.GetCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "patient@example.com", first.PrincipalID)
	assert.Equal(t, "id-1", first.BearerToken)

	second, err := src.GetCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id-2", second.BearerToken)
	assert.Equal(t, int32(2), calls.Load())
}

func TestForceRefresh_TokenShape(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id_token":"id","expires_in":"3600","user_id":"uid-9"}`))
	})

	src := NewSecureTokenSource("k", srv.Client()).WithTokenURL(srv.URL)
	src.SignIn(Session{RefreshToken: "rt"})

	tok, err := src.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, "rt", tok.RefreshToken)
	assert.False(t, tok.Expiry.IsZero())

	principal, err := src.PrincipalID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "uid-9", principal)
}

func TestGetCredential_SessionEnded(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"TOKEN_EXPIRED"}}`))
	})

	src := NewSecureTokenSource("k", srv.Client()).WithTokenURL(srv.URL)
	src.SignIn(Session{Email: "a@b.com", RefreshToken: "rt"})

	_, err := src.GetCredential(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = src.PrincipalID(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated, "session should be dropped")
}

func TestGetCredential_ServerError(t *testing.T) {
	srv := newTokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	src := NewSecureTokenSource("k", srv.Client()).WithTokenURL(srv.URL)
	src.SignIn(Session{Email: "a@b.com", RefreshToken: "rt"})

	_, err := src.GetCredential(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
