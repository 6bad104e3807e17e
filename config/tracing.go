package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/akeren/waitlist-api/internal/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	DefaultTracingServiceName = "waitlist-api"
	DefaultOTLPEndpoint       = "http://localhost:4318"
)

// TracingConfig is read once at boot. Spans come from the HTTP middleware and the
// document store adapter; both share the provider built by SetupTracing.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Environment string
}

func NewTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     GetBoolFromEnv("OTEL_TRACES_ENABLED", false),
		ServiceName: GetTrimmedEnvOrDefault("OTEL_SERVICE_NAME", DefaultTracingServiceName),
		Endpoint:    GetTrimmedEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", DefaultOTLPEndpoint),
		Environment: GetAppEnv(),
	}
}

// MiddlewareServiceName is empty when tracing is off, which keeps otelgin unmounted.
func (tc TracingConfig) MiddlewareServiceName() string {
	if !tc.Enabled {
		return ""
	}
	return tc.ServiceName
}

// SetupTracing installs the OTLP exporter as the global provider and returns it so
// the document store can be handed the same provider. It returns nil when tracing
// is disabled.
func SetupTracing(tc TracingConfig, logger *log.Logger) (*trace.TracerProvider, error) {
	if !tc.Enabled {
		return nil, nil
	}

	hostport, urlPath, insecure, err := parseOTLPEndpoint(tc.Endpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(hostport),
		otlptracehttp.WithURLPath(urlPath),
	}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", tc.ServiceName)}
	if tc.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", tc.Environment))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry tracing enabled", "service", tc.ServiceName, "endpoint", tc.Endpoint)

	return tp, nil
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port.
func parseOTLPEndpoint(raw string) (hostport string, urlPath string, insecure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		if strings.ContainsAny(raw, "/?#") {
			return "", "", false, fmt.Errorf("invalid OTLP endpoint %q: a path needs a scheme, e.g. \"http://host:port/path\"", raw)
		}
		return raw, "/v1/traces", true, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", false, fmt.Errorf("unsupported OTLP endpoint scheme %q", u.Scheme)
	}

	urlPath = u.EscapedPath()
	if urlPath == "" || urlPath == "/" {
		urlPath = "/v1/traces"
	}

	return u.Host, urlPath, scheme == "http", nil
}
