package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/queridometro/internal/model"
)

// Session is the signed-in user as seen by handlers. It is rebuilt from the
// store on every request, so a renamed or promoted user sees the change
// without logging in again.
type Session struct {
	model.UserSummary
}

// SessionResolver turns a token into a Session. It returns (nil, nil) for a
// token that is invalid, expired or names a user that no longer exists; an
// error means the lookup itself failed.
//
// service.AuthService implements it.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*Session, error)
}

// contextKey is an unexported type used for context keys in this package.
type contextKey string

const sessionKey contextKey = "session"

// LoadSession resolves the session cookie, if any, and stores the session in
// the request context. It never rejects a request: anonymous requests go
// through unchanged, and RequireAuth / RequireMaster decide what needs a
// session.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func LoadSession(resolver SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				// http.ErrNoCookie means anonymous, not an error
				next.ServeHTTP(w, r)
				return
			}

			sess, err := resolver.GetSession(r.Context(), cookie.Value)
			if err != nil {
				logger.ErrorContext(r.Context(), "resolving session",
					slog.String("error", err.Error()))
			}
			if sess != nil {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a session with 401 Unauthorized.
// It must run after LoadSession.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Não autorizado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireMaster lets through administrators only: 401 without a session,
// 403 Forbidden for a regular user.
func RequireMaster(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Não autorizado")
			return
		}
		if !sess.IsMaster {
			writeAuthError(w, http.StatusForbidden, "forbidden", "Apenas o administrador pode acessar")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext retrieves the session stored by LoadSession.
//
// Returns (nil, false) if the request is anonymous.
//
// Usage in handlers:
//
//	sess, ok := auth.SessionFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*Session)
	return sess, ok && sess != nil
}

// writeAuthError writes the same {error, message} body the handlers use.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
