package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jobhive/jobhive/internal/health"
	"github.com/jobhive/jobhive/internal/http/middleware"
	"github.com/jobhive/jobhive/internal/http/response"
	"github.com/jobhive/jobhive/internal/observability"
)

// Forwarder is the public edge of the platform. It routes /api/v1/<prefix>
// traffic to the owning service and knows nothing about request payloads:
// authentication and authorization stay with the services themselves.
type Forwarder struct {
	targets map[string]*url.URL
	proxies map[string]http.Handler
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type Options struct {
	// Targets maps a path prefix ("auth", "jobs", ...) to a service origin.
	Targets map[string]string
	Timeout time.Duration

	CORSOrigins []string
	RateLimiter func(http.Handler) http.Handler
	RateLimit   int

	EnableOTelHTTP bool
	Logger         *slog.Logger
}

func NewForwarder(opts Options) (*Forwarder, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	f := &Forwarder{
		targets: make(map[string]*url.URL, len(opts.Targets)),
		proxies: make(map[string]http.Handler, len(opts.Targets)),
		client:  &http.Client{Timeout: opts.Timeout},
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	for prefix, raw := range opts.Targets {
		target, err := url.Parse(raw)
		if err != nil {
			return nil, err
		}
		f.targets[prefix] = target
		f.proxies[prefix] = f.newProxy(prefix, target)
	}
	return f, nil
}

func (f *Forwarder) newProxy(prefix string, target *url.URL) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			// Preserve the full /api/v1/<prefix>/... path; services mount
			// the same tree the gateway exposes.
			pr.Out.URL.Path = pr.In.URL.Path
			pr.Out.URL.RawQuery = pr.In.URL.RawQuery
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			f.logger.ErrorContext(r.Context(), "proxy error",
				"service", prefix,
				"target", target.String(),
				"path", r.URL.Path,
				"error", err.Error(),
			)
			observability.RecordProxyForward(r.Context(), prefix, "error", 0)
			// One uniform answer for every backend failure so the edge
			// never leaks topology.
			response.Error(w, http.StatusBadGateway, response.CodeServiceUnavailable, "Service unavailable")
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
		defer cancel()
		proxy.ServeHTTP(w, r.WithContext(ctx))
		observability.RecordProxyForward(r.Context(), prefix, "forwarded", time.Since(start))
	})
}

// Handler builds the gateway's route tree: the shared middleware chain, its
// own health endpoints, and one mounted proxy per prefix.
func (f *Forwarder) Handler(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(opts.CORSOrigins))
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter)
	} else if opts.RateLimit > 0 {
		r.Use(middleware.NewRateLimiter(opts.RateLimit, time.Minute, "gateway").Middleware())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/api/v1/health", f.aggregateHealth)

	for prefix, proxy := range f.proxies {
		r.Mount("/api/v1/"+prefix, proxy)
	}

	var h http.Handler = r
	if opts.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "gateway")
	}
	return h
}

// aggregateHealth probes every backend concurrently and reports per-service
// status. The gateway itself stays healthy even when backends are down; the
// per-service entries carry the bad news.
func (f *Forwarder) aggregateHealth(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		name   string
		result health.CheckResult
	}

	g, ctx := errgroup.WithContext(r.Context())
	results := make(chan entry, len(f.targets))
	for prefix, target := range f.targets {
		prefix, target := prefix, target
		g.Go(func() error {
			checker := health.NewUpstreamChecker(prefix, target.String(), f.client)
			results <- entry{name: prefix, result: checker.Check(ctx)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	services := make([]health.CheckResult, 0, len(f.targets))
	for e := range results {
		services = append(services, e.result)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })

	response.JSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"services": services,
	})
}
