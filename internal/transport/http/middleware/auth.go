package middleware

import (
	"context"
	"net/http"
	"strings"

	"leavedesk/internal/domain/auth"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// SessionChecker reports whether a session is still live, so revoked
// tokens stop working before they expire.
type SessionChecker interface {
	SessionValid(ctx context.Context, sessionID string) (bool, error)
}

// Auth attaches the authenticated user to the context when a valid
// bearer token is present. Requests without one pass through
// unauthenticated; route guards decide whether that is acceptable.
func Auth(secret string, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(header, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if sessions != nil && claims.SessionID != "" {
				live, err := sessions.SessionValid(r.Context(), claims.SessionID)
				if err != nil || !live {
					next.ServeHTTP(w, r)
					return
				}
			}

			role, err := auth.ParseRole(claims.Role)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:    claims.UserID,
				Role:      role,
				SessionID: claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}
