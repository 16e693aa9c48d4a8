package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jobhive/jobhive/internal/http/response"
	"github.com/jobhive/jobhive/internal/observability"
	"github.com/jobhive/jobhive/internal/security"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// Authenticate verifies the Bearer access token and stashes its claims in the
// request context. Expired tokens get a distinct code so clients know to
// refresh instead of re-authenticating.
func Authenticate(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing")
				response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Access token required")
				return
			}
			claims, err := jwtMgr.VerifyAccessToken(raw)
			if err != nil {
				if errors.Is(err, security.ErrTokenExpired) {
					observability.RecordAccessTokenValidation(r.Context(), "expired")
					response.Error(w, http.StatusUnauthorized, response.CodeTokenExpired, "Access token expired")
					return
				}
				observability.RecordAccessTokenValidation(r.Context(), "invalid")
				response.Error(w, http.StatusUnauthorized, response.CodeInvalidToken, "Invalid access token")
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid")
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
