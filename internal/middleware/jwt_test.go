package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeValidator accepts the single token "good".
type fakeValidator struct{}

func (fakeValidator) ValidateToken(tokenString string) (int, string, error) {
	if tokenString != "good" {
		return 0, "", errors.New("bad token")
	}
	return 7, "alice", nil
}

func protected(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, 7, r.Context().Value(UserKey))
		assert.Equal(t, "alice", r.Context().Value(UsernameKey))
	})
	return NewAuthMiddleware(fakeValidator{}).Handle(inner), &called
}

func TestHandlePopulatesIdentityFromBearerHeader(t *testing.T) {
	h, called := protected(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, *called)
}

func TestHandleAcceptsQueryTokenFallback(t *testing.T) {
	h, called := protected(t)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=good", nil)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, *called)
}

func TestHandleRejectsMissingAndInvalidTokens(t *testing.T) {
	h, called := protected(t)

	for _, header := range []string{"", "Bearer wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "UNAUTHORIZED", body["code"])
	}
	assert.False(t, *called)
}
