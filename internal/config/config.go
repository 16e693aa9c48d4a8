package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env string

	GatewayPort string
	AuthPort    string
	JobPort     string

	// Collaborator services the gateway routes to but this repo does not run.
	UserServicePort         string
	ApplicationServicePort  string
	SearchServicePort       string
	NotificationServicePort string
	AdminServicePort        string

	DatabaseURL string
	ClientURL   string

	JWTIssuer        string
	JWTSecret        string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration

	LoginMaxAttempts     int
	LoginLockoutDuration time.Duration
	PasswordResetTTL     time.Duration

	CookieDomain   string
	CookieSecure   bool
	CookieSameSite string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	ProxyTimeout time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env: env,

		GatewayPort:             getEnv("GATEWAY_PORT", "5000"),
		AuthPort:                getEnv("AUTH_SERVICE_PORT", "5001"),
		UserServicePort:         getEnv("USER_SERVICE_PORT", "5002"),
		JobPort:                 getEnv("JOB_SERVICE_PORT", "5003"),
		ApplicationServicePort:  getEnv("APPLICATION_SERVICE_PORT", "5004"),
		SearchServicePort:       getEnv("SEARCH_SERVICE_PORT", "5005"),
		NotificationServicePort: getEnv("NOTIFICATION_SERVICE_PORT", "5006"),
		AdminServicePort:        getEnv("ADMIN_SERVICE_PORT", "5007"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:5173"),

		JWTIssuer:        getEnv("JWT_ISSUER", "jobhive"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),

		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),

		CookieDomain:   os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:   getEnvBool("COOKIE_SECURE", env == "production"),
		CookieSameSite: strings.ToLower(getEnv("COOKIE_SAMESITE", "strict")),

		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 20),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 100),

		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPrefix:   getEnv("REDIS_PREFIX", "jobhive"),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "jobhive"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", false),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", false),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", false),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	var err error
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_EXPIRE", "15m"); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshTTL, err = parseDurationEnv("JWT_REFRESH_EXPIRE", "168h"); err != nil {
		return nil, err
	}
	if cfg.LoginLockoutDuration, err = parseDurationEnv("LOGIN_LOCKOUT_DURATION", "15m"); err != nil {
		return nil, err
	}
	if cfg.PasswordResetTTL, err = parseDurationEnv("PASSWORD_RESET_TOKEN_TTL", "30m"); err != nil {
		return nil, err
	}
	if cfg.ProxyTimeout, err = parseDurationEnv("PROXY_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.OTELMetricsExportInterval, err = parseDurationEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 chars")
	}
	if len(c.JWTRefreshSecret) < 32 {
		errs = append(errs, "JWT_REFRESH_SECRET must be at least 32 chars")
	}
	if c.JWTSecret != "" && c.JWTSecret == c.JWTRefreshSecret {
		errs = append(errs, "JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWTAccessTTL <= 0 || c.JWTAccessTTL > time.Hour {
		errs = append(errs, "JWT_EXPIRE must be between 1s and 1h")
	}
	if c.JWTRefreshTTL <= 0 || c.JWTRefreshTTL > 30*24*time.Hour {
		errs = append(errs, "JWT_REFRESH_EXPIRE must be between 1s and 30d")
	}
	if c.LoginMaxAttempts <= 0 {
		errs = append(errs, "LOGIN_MAX_ATTEMPTS must be > 0")
	}
	if c.LoginLockoutDuration <= 0 {
		errs = append(errs, "LOGIN_LOCKOUT_DURATION must be > 0")
	}
	if c.PasswordResetTTL <= 0 {
		errs = append(errs, "PASSWORD_RESET_TOKEN_TTL must be > 0")
	}
	if c.ProxyTimeout <= 0 {
		errs = append(errs, "PROXY_TIMEOUT must be > 0")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Production reports whether internals must be hidden from API responses.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// ServiceTargets maps gateway path prefixes to local service origins.
func (c *Config) ServiceTargets() map[string]string {
	return map[string]string{
		"auth":          "http://localhost:" + c.AuthPort,
		"users":         "http://localhost:" + c.UserServicePort,
		"jobs":          "http://localhost:" + c.JobPort,
		"applications":  "http://localhost:" + c.ApplicationServicePort,
		"search":        "http://localhost:" + c.SearchServicePort,
		"notifications": "http://localhost:" + c.NotificationServicePort,
		"admin":         "http://localhost:" + c.AdminServicePort,
	}
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func isValidLogLevel(v string) bool {
	switch v {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
