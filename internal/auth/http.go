// ABOUTME: HTTP helpers for bearer-token protected routes
// ABOUTME: Puts verified claims on the request context

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type claimsKey struct{}

// WithClaims returns a context carrying verified claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// FromContext returns the claims placed by RequireBearer, or nil.
func FromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// BearerToken extracts the token from an Authorization header.
// Returns the token and an error message (empty if successful).
func BearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", "invalid authorization header format"
	}
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// RequireBearer rejects requests without a valid token for signer's
// audience. When role is non-empty the token must carry it.
func RequireBearer(signer *Signer, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := BearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				writeError(w, http.StatusUnauthorized, errMsg)
				return
			}
			claims, err := signer.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if role != "" && claims.Role != role {
				writeError(w, http.StatusForbidden, "Acceso denegado")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
