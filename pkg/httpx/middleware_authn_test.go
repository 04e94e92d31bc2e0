package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sentinelsec/sentinel/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newAuthnCodec(t *testing.T) *jwtx.Codec {
	t.Helper()
	codec, err := jwtx.NewCodec([]byte("test-secret"), "test-issuer")
	require.NoError(t, err)
	return codec
}

func signToken(t *testing.T, codec *jwtx.Codec, role, tokenType string, ttl time.Duration) string {
	t.Helper()
	raw, err := codec.Sign(jwtx.NewClaims("alice", "user-1", role, tokenType, ttl, codec.Issuer(), time.Now()))
	require.NoError(t, err)
	return raw
}

func echoClaims() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(claims.UserID))
	})
}

func TestAuthnMiddleware(t *testing.T) {
	codec := newAuthnCodec(t)
	handler := Chain(echoClaims(), AuthnMiddleware(codec))

	run := func(authz string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid access token passes claims through", func(t *testing.T) {
		rec := run("Bearer " + signToken(t, codec, "user", jwtx.TokenTypeAccess, time.Minute))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		rec := run("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("non-bearer scheme", func(t *testing.T) {
		rec := run("Basic abc123")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		rec := run("Bearer " + signToken(t, codec, "user", jwtx.TokenTypeAccess, -time.Minute))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		rec := run("Bearer " + signToken(t, codec, "user", jwtx.TokenTypeRefresh, time.Minute))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	codec := newAuthnCodec(t)
	handler := Chain(echoClaims(), AuthnMiddleware(codec), RequireRole("admin"))

	run := func(role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, codec, role, jwtx.TokenTypeAccess, time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("admin passes", func(t *testing.T) {
		require.Equal(t, http.StatusOK, run("admin").Code)
	})

	t.Run("other roles are forbidden", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden, run("analyst").Code)
	})
}
