package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Luca-B431/bill-app/internal/auth"
)

// CookieName is the name of the browser session cookie.
const CookieName = "billed_session"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionIDKey is the context key for storing the browser session ID.
const SessionIDKey contextKey = "session_id"

// SessionID extracts the browser session ID from the context.
// Returns empty string if not found.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// WithSessionID returns a copy of ctx carrying id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

// Session returns a middleware that identifies the browser. A valid session
// cookie is trusted; a missing, expired or forged one is replaced by a new
// session. The session ID is added to the request context.
func Session(manager *auth.SessionManager, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sessionID string
			if cookie, err := r.Cookie(CookieName); err == nil {
				if claims, err := manager.Validate(cookie.Value); err == nil {
					sessionID = claims.SessionID
				} else {
					slog.Debug("Session cookie rejected", "error", err)
				}
			}

			if sessionID == "" {
				sessionID = auth.NewSessionID()
				token, err := manager.Issue(sessionID)
				if err != nil {
					slog.Error("Session cookie could not be issued", "error", err)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Path:     "/",
					MaxAge:   int(manager.Lifetime().Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
				slog.Debug("Session started", "session_id", sessionID)
			}

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}
