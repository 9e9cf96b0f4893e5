package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/qartha/idfportal/internal/auth"
	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/logging"
)

// SessionCookie is the cookie holding the session JWT.
const SessionCookie = "access_token"

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticate attaches a core.Actor to the request context when the
// request carries a valid session cookie, a valid bearer JWT, or the static
// admin token. Requests without credentials pass through anonymously;
// RequireUser and RequireAdmin decide what they may reach.
func Authenticate(tokens *auth.Manager, adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if adminToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(adminToken)) == 1 {
				ctx := core.ContextWithActor(r.Context(), core.Actor{Role: core.RoleAdmin})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if tokens == nil {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.Validate(token)
			if err != nil {
				logging.FromContext(r.Context()).Debug("auth: rejected token", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			id, err := claims.UserID()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := core.ContextWithActor(r.Context(), core.Actor{UserID: id, Role: core.Role(claims.Role)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireUser rejects anonymous requests with core.ErrUnauthenticated.
func RequireUser(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := core.ActorFromContext(r.Context()); !ok {
				onError(w, r, core.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects anonymous requests and non-admin actors.
func RequireAdmin(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := core.ActorFromContext(r.Context())
			if !ok {
				onError(w, r, core.ErrUnauthenticated)
				return
			}
			if !a.IsAdmin() {
				logging.FromContext(r.Context()).Warn("auth: admin required",
					"user_id", a.UserID,
					"path", r.URL.Path,
					"method", r.Method,
				)
				onError(w, r, core.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
