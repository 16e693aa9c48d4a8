package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jobhive/jobhive/internal/app"
	"github.com/jobhive/jobhive/internal/config"
	"github.com/jobhive/jobhive/internal/database"
	"github.com/jobhive/jobhive/internal/gateway"
	"github.com/jobhive/jobhive/internal/health"
	"github.com/jobhive/jobhive/internal/http/handler"
	"github.com/jobhive/jobhive/internal/http/middleware"
	"github.com/jobhive/jobhive/internal/http/router"
	"github.com/jobhive/jobhive/internal/observability"
	"github.com/jobhive/jobhive/internal/repository"
	"github.com/jobhive/jobhive/internal/security"
	"github.com/jobhive/jobhive/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewJobRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	provideAuthService,
	service.NewJobService,
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewJobHandler,
	provideRouterDependencies,
)

var AuthAppSet = wire.NewSet(
	ConfigSet,
	ObservabilitySet,
	RuntimeInfraSet,
	RepositorySet,
	SecuritySet,
	ServiceSet,
	HTTPSet,
	provideAuthRouter,
	provideAuthHTTPServer,
	app.New,
)

var JobAppSet = wire.NewSet(
	ConfigSet,
	ObservabilitySet,
	RuntimeInfraSet,
	RepositorySet,
	SecuritySet,
	ServiceSet,
	HTTPSet,
	provideJobRouter,
	provideJobHTTPServer,
	app.New,
)

var GatewayAppSet = wire.NewSet(
	ConfigSet,
	ObservabilitySet,
	provideRedisClient,
	provideGatewayHandler,
	provideGatewayHTTPServer,
	provideGatewayApp,
)

var MigrationSet = wire.NewSet(
	ConfigSet,
	provideMigrationDB,
	NewMigrationRunner,
)

func provideObservabilityRuntime(ctx context.Context, cfg *config.Config) (*observability.Runtime, error) {
	return observability.InitRuntime(ctx, cfg, observability.NewBootstrapLogger(cfg))
}

func provideAppLogger(cfg *config.Config, rt *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, rt.LoggerProvider)
}

// provideRuntimeDB opens the database and brings the schema and the bootstrap
// admin up to date before the server takes traffic. Deployments that run
// migrations out of band use jobctl instead and leave the bootstrap env vars
// unset, which makes Seed a no-op.
func provideRuntimeDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		return nil, err
	}
	logger.Info("database ready")
	return db, nil
}

func provideMigrationDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func provideReadinessProbeRunner(db *gorm.DB, client redis.UniversalClient) *health.ProbeRunner {
	return health.NewProbeRunner(2*time.Second, 0,
		health.NewDBChecker(db),
		health.NewRedisChecker(client),
	)
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.JWTIssuer, cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite, cfg.JWTRefreshTTL)
}

func provideAuthService(users repository.UserRepository, jwt *security.JWTManager, cfg *config.Config, logger *slog.Logger) service.AuthService {
	return service.NewAuthService(users, jwt, service.AuthConfig{
		MaxLoginAttempts: cfg.LoginMaxAttempts,
		LockoutDuration:  cfg.LoginLockoutDuration,
		ResetTokenTTL:    cfg.PasswordResetTTL,
	}, logger)
}

func provideAuthHandler(authSvc service.AuthService, cookieMgr *security.CookieManager, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, cfg.ClientURL, cfg.Production())
}

func provideRouterDependencies(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	jobHandler *handler.JobHandler,
	jwt *security.JWTManager,
	readiness *health.ProbeRunner,
	client redis.UniversalClient,
) router.Dependencies {
	dep := router.Dependencies{
		AuthHandler:      authHandler,
		JobHandler:       jobHandler,
		JWTManager:       jwt,
		CORSOrigins:      []string{cfg.ClientURL},
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELTracingEnabled,
	}
	if client != nil {
		shared := middleware.NewRedisScopedLimiter(client, cfg.RedisPrefix, "api")
		dep.RateLimiter = middleware.NewDistributedRateLimiter(
			shared, cfg.APIRateLimitPerMin, time.Minute, middleware.FailOpen, "api",
		).Middleware()
	}
	return dep
}

func provideAuthRouter(dep router.Dependencies) http.Handler {
	return router.NewAuthRouter(dep)
}

func provideJobRouter(dep router.Dependencies) http.Handler {
	return router.NewJobRouter(dep)
}

func provideGatewayHandler(cfg *config.Config, logger *slog.Logger, client redis.UniversalClient) (http.Handler, error) {
	opts := gateway.Options{
		Targets:        cfg.ServiceTargets(),
		Timeout:        cfg.ProxyTimeout,
		CORSOrigins:    []string{cfg.ClientURL},
		RateLimit:      cfg.APIRateLimitPerMin,
		EnableOTelHTTP: cfg.OTELTracingEnabled,
		Logger:         logger,
	}
	if client != nil {
		shared := middleware.NewRedisScopedLimiter(client, cfg.RedisPrefix, "gateway")
		opts.RateLimiter = middleware.NewDistributedRateLimiter(
			shared, cfg.APIRateLimitPerMin, time.Minute, middleware.FailOpen, "gateway",
		).Middleware()
	}
	fwd, err := gateway.NewForwarder(opts)
	if err != nil {
		return nil, err
	}
	return fwd.Handler(opts), nil
}

func provideGatewayApp(cfg *config.Config, logger *slog.Logger, server *http.Server, rt *observability.Runtime, client redis.UniversalClient) *app.App {
	return app.New(cfg, logger, server, rt, nil, client)
}

func provideAuthHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return newHTTPServer(cfg.AuthPort, h)
}

func provideJobHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return newHTTPServer(cfg.JobPort, h)
}

func provideGatewayHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	srv := newHTTPServer(cfg.GatewayPort, h)
	// Proxied responses may legitimately take as long as the upstream budget.
	srv.WriteTimeout = cfg.ProxyTimeout + 5*time.Second
	return srv
}

func newHTTPServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// MigrationRunner applies schema migrations and the admin bootstrap without
// starting a server. jobctl drives it.
type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Migrate() error {
	return database.Migrate(m.db)
}

func (m *MigrationRunner) Seed(email, password string) error {
	if email == "" {
		email = m.cfg.BootstrapAdminEmail
	}
	if password == "" {
		password = m.cfg.BootstrapAdminPassword
	}
	return database.Seed(m.db, email, password)
}

func (m *MigrationRunner) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *MigrationRunner) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
