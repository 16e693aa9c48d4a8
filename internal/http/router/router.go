package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/health"
	"github.com/jobhive/jobhive/internal/http/handler"
	"github.com/jobhive/jobhive/internal/http/middleware"
	"github.com/jobhive/jobhive/internal/http/response"
	"github.com/jobhive/jobhive/internal/security"
)

type Dependencies struct {
	AuthHandler *handler.AuthHandler
	JobHandler  *handler.JobHandler
	JWTManager  *security.JWTManager

	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	// RateLimiter overrides the per-process default; the gateway passes a
	// Redis-backed one so replicas share windows.
	RateLimiter func(http.Handler) http.Handler

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func base(dep Dependencies) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.RateLimiter != nil {
		r.Use(dep.RateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": results})
			return
		}
		response.ErrorWithDetails(w, http.StatusServiceUnavailable, response.CodeServiceUnavailable,
			"dependencies are not ready", map[string]any{"checks": results})
	})
	return r
}

func wrap(r chi.Router, enableOTel bool) http.Handler {
	if enableOTel {
		return otelhttp.NewHandler(r, "http.server")
	}
	return r
}

// NewAuthRouter serves the authentication service route tree.
func NewAuthRouter(dep Dependencies) http.Handler {
	r := base(dep)
	authLimiter := middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	authn := middleware.Authenticate(dep.JWTManager)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
		r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
		r.With(authLimiter).Post("/refresh-token", dep.AuthHandler.Refresh)
		r.With(authLimiter).Post("/forgot-password", dep.AuthHandler.ForgotPassword)
		r.With(authLimiter).Post("/reset-password/{token}", dep.AuthHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/logout", dep.AuthHandler.Logout)
			r.Get("/me", dep.AuthHandler.Me)
			r.With(authLimiter).Post("/change-password", dep.AuthHandler.ChangePassword)
		})
	})
	return wrap(r, dep.EnableOTelHTTP)
}

// NewJobRouter serves the job service route tree. Reads are public; writes
// require an authenticated employer (or admin) and ownership is enforced in
// the service.
func NewJobRouter(dep Dependencies) http.Handler {
	r := base(dep)
	authn := middleware.Authenticate(dep.JWTManager)

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Get("/", dep.JobHandler.List)
		r.Get("/{id}", dep.JobHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.With(middleware.RequirePermission(domain.PermPostJobs)).Post("/", dep.JobHandler.Create)
			r.With(middleware.RequireRole(domain.RoleEmployer, domain.RoleAdmin)).Put("/{id}", dep.JobHandler.Update)
			r.With(middleware.RequireRole(domain.RoleEmployer, domain.RoleAdmin)).Delete("/{id}", dep.JobHandler.Delete)
		})
	})
	return wrap(r, dep.EnableOTelHTTP)
}
