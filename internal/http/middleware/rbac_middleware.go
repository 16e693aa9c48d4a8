package middleware

import (
	"net/http"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/http/response"
)

// RequireRole admits only the listed roles. Authenticate must run first.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := map[domain.Role]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				response.Error(w, http.StatusForbidden, response.CodeForbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission admits any role whose capability set contains permission.
func RequirePermission(permission domain.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
				return
			}
			if !claims.Role.Can(permission) {
				response.ErrorWithDetails(w, http.StatusForbidden, response.CodeForbidden,
					"Insufficient permission", map[string]string{"required": string(permission)})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
