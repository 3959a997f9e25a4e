// ABOUTME: Tests for bearer-token middleware
// ABOUTME: Covers missing, malformed, invalid, wrong-role, and accepted tokens

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tok, msg := BearerToken("Bearer abc")
	assert.Equal(t, "abc", tok)
	assert.Empty(t, msg)

	_, msg = BearerToken("")
	assert.Equal(t, "missing authorization header", msg)
	_, msg = BearerToken("Basic abc")
	assert.Equal(t, "invalid authorization header format", msg)
	_, msg = BearerToken("Bearer ")
	assert.Equal(t, "empty token", msg)
}

func TestRequireBearer(t *testing.T) {
	signer := mustSigner(t, testSecret, AudienceAdmin)
	adminToken, err := signer.Issue("admin", RoleAdmin, time.Hour)
	require.NoError(t, err)
	plainToken, err := signer.Issue("someone", "", time.Hour)
	require.NoError(t, err)

	var seen *Claims
	h := RequireBearer(signer, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"missing role", "Bearer " + plainToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want != http.StatusNoContent {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, "admin", seen.Subject)
}

func TestFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, FromContext(req.Context()))
}
