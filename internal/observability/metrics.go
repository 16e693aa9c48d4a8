package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"

	"github.com/jobhive/jobhive/internal/config"
)

type AppMetrics struct {
	authLoginCounter         metric.Int64Counter
	authRefreshCounter       metric.Int64Counter
	authLogoutCounter        metric.Int64Counter
	authPasswordFlowCounter  metric.Int64Counter
	authLockoutCounter       metric.Int64Counter
	authReqDuration          metric.Float64Histogram
	tokenValidationCounter   metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
	jobMutationCounter       metric.Int64Counter
	proxyForwardCounter      metric.Int64Counter
	proxyForwardDuration     metric.Float64Histogram
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := serviceResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("jobhive")
	m := &AppMetrics{}
	if m.authLoginCounter, err = meter.Int64Counter("auth.login.attempts"); err != nil {
		return nil, err
	}
	if m.authRefreshCounter, err = meter.Int64Counter("auth.refresh.attempts"); err != nil {
		return nil, err
	}
	if m.authLogoutCounter, err = meter.Int64Counter("auth.logout.attempts"); err != nil {
		return nil, err
	}
	if m.authPasswordFlowCounter, err = meter.Int64Counter("auth.password.flow.events"); err != nil {
		return nil, err
	}
	if m.authLockoutCounter, err = meter.Int64Counter("auth.lockout.events"); err != nil {
		return nil, err
	}
	if m.authReqDuration, err = meter.Float64Histogram("auth.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of auth endpoint requests in seconds")); err != nil {
		return nil, err
	}
	if m.tokenValidationCounter, err = meter.Int64Counter("auth.access_token.validation.events"); err != nil {
		return nil, err
	}
	if m.rateLimitDecisionCounter, err = meter.Int64Counter("http.rate_limit.decisions"); err != nil {
		return nil, err
	}
	if m.jobMutationCounter, err = meter.Int64Counter("job.mutations"); err != nil {
		return nil, err
	}
	if m.proxyForwardCounter, err = meter.Int64Counter("gateway.proxy.forwards"); err != nil {
		return nil, err
	}
	if m.proxyForwardDuration, err = meter.Float64Histogram("gateway.proxy.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of proxied requests in seconds")); err != nil {
		return nil, err
	}
	if m.healthCheckResultCounter, err = meter.Int64Counter("health.check.results"); err != nil {
		return nil, err
	}
	if m.healthCheckDuration, err = meter.Float64Histogram("health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds")); err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthLogin(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAuthRefresh(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.authRefreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAuthLogout(ctx context.Context, status string) {
	if m := current(); m != nil {
		m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordPasswordFlowEvent(ctx context.Context, flow, outcome string) {
	if m := current(); m != nil {
		m.authPasswordFlowCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("flow", flow),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordLockoutEvent(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.authLockoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	if m := current(); m != nil {
		m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		))
	}
}

func RecordAccessTokenValidation(ctx context.Context, outcome string) {
	if m := current(); m != nil {
		m.tokenValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode string) {
	if m := current(); m != nil {
		m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
			attribute.String("mode", mode),
		))
	}
}

func RecordJobMutation(ctx context.Context, action, status string) {
	if m := current(); m != nil {
		m.jobMutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("status", status),
		))
	}
}

func RecordProxyForward(ctx context.Context, service, outcome string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.proxyForwardCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("outcome", outcome),
	))
	m.proxyForwardDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
	))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	if m := current(); m != nil {
		m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check", check),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	if m := current(); m != nil {
		m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("check", check),
		))
	}
}
