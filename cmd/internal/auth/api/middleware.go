package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"opsboard/cmd/internal/auth/token"
)

type contextKey struct{ name string }

var claimsKey = contextKey{"claims"}

// ClaimsFrom returns the verified claims injected by RequireAuth.
func ClaimsFrom(ctx context.Context) (token.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(token.Claims)
	return c, ok
}

// RequireAuth guards a handler behind a Bearer access token. Missing
// credentials are 401; a presented-but-unusable token is 403, with the
// expired case answered by a distinct body so clients refresh instead of
// re-authenticating.
func RequireAuth(mgr *token.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeMessage(w, http.StatusUnauthorized, "Token required")
				return
			}

			claims, err := mgr.VerifyAccess(raw)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					writeMessage(w, http.StatusForbidden, "TokenExpired")
					return
				}
				writeMessage(w, http.StatusForbidden, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
