// ABOUTME: Browser session identity carried in a signed cookie
// ABOUTME: Missing, expired, or tampered cookies get a fresh session

package webchat

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CookieName is the session cookie.
const CookieName = "tutor_session"

type sessionKey struct{}

func sessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// withSession resolves the caller's session id, minting one when needed,
// and stores it on the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(CookieName); err == nil {
			if claims, err := s.signer.Verify(c.Value); err == nil {
				id = claims.Subject
			} else {
				s.logger.Debug("discarding session cookie", "error", err)
			}
		}

		if id == "" {
			id = uuid.New().String()
			token, err := s.signer.Issue(id, "", s.cookieTTL)
			if err != nil {
				s.logger.Error("issuing session token", "error", err)
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(s.cookieTTL.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			s.logger.Debug("session started", "session_id", id)
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}
