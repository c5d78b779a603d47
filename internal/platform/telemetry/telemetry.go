package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ShutdownFunc releases telemetry resources.
type ShutdownFunc func(ctx context.Context) error

// Setup initializes OpenTelemetry with a Prometheus exporter.
// Returns a shutdown function that must be called on exit.
func Setup(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// APIMetrics holds all OTel instruments for the API boundary layer.
type APIMetrics struct {
	httpRequestsTotal       otelmetric.Int64Counter
	httpRequestDuration     otelmetric.Float64Histogram
	authValidationsTotal    otelmetric.Int64Counter
	rateLimitDecisionsTotal otelmetric.Int64Counter
	sizeLimitRejections     otelmetric.Int64Counter
	errorResponsesTotal     otelmetric.Int64Counter
}

// NewAPIMetrics creates and registers all API metrics.
func NewAPIMetrics() (*APIMetrics, error) {
	meter := otel.Meter("pathways")
	m := &APIMetrics{}
	var err error

	latencyBuckets := otelmetric.WithExplicitBucketBoundaries(
		0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
	)

	if m.httpRequestsTotal, err = meter.Int64Counter("pathways_http_requests_total",
		otelmetric.WithDescription("Total HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram("pathways_http_request_duration_seconds",
		otelmetric.WithDescription("HTTP request duration"), latencyBuckets); err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}
	if m.authValidationsTotal, err = meter.Int64Counter("pathways_auth_validations_total",
		otelmetric.WithDescription("Total auth validations")); err != nil {
		return nil, fmt.Errorf("creating auth_validations_total: %w", err)
	}
	if m.rateLimitDecisionsTotal, err = meter.Int64Counter("pathways_ratelimit_decisions_total",
		otelmetric.WithDescription("Total rate limit decisions")); err != nil {
		return nil, fmt.Errorf("creating ratelimit_decisions_total: %w", err)
	}
	if m.sizeLimitRejections, err = meter.Int64Counter("pathways_size_limit_rejections_total",
		otelmetric.WithDescription("Requests rejected by a size governor")); err != nil {
		return nil, fmt.Errorf("creating size_limit_rejections_total: %w", err)
	}
	if m.errorResponsesTotal, err = meter.Int64Counter("pathways_error_responses_total",
		otelmetric.WithDescription("Error responses by kind")); err != nil {
		return nil, fmt.Errorf("creating error_responses_total: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric.
func (m *APIMetrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, durationSec float64) {
	attrs := otelmetric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(status),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, durationSec, attrs)
}

// RecordAuthValidation records an auth validation result.
func (m *APIMetrics) RecordAuthValidation(ctx context.Context, result string) {
	m.authValidationsTotal.Add(ctx, 1, otelmetric.WithAttributes(resultAttr(result)))
}

// RecordRateLimitDecision records a rate limit decision.
func (m *APIMetrics) RecordRateLimitDecision(ctx context.Context, layer, result string) {
	m.rateLimitDecisionsTotal.Add(ctx, 1, otelmetric.WithAttributes(
		layerAttr(layer),
		resultAttr(result),
	))
}

// RecordSizeLimitRejection records a 413 produced by one of the size
// governors; governor is "checked" or "stream".
func (m *APIMetrics) RecordSizeLimitRejection(ctx context.Context, governor string) {
	m.sizeLimitRejections.Add(ctx, 1, otelmetric.WithAttributes(governorAttr(governor)))
}

// RecordErrorResponse records an error envelope by taxonomy kind.
func (m *APIMetrics) RecordErrorResponse(ctx context.Context, kind string, status int) {
	m.errorResponsesTotal.Add(ctx, 1, otelmetric.WithAttributes(
		kindAttr(kind),
		statusAttr(status),
	))
}
