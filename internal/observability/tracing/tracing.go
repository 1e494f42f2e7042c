package tracing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/invoicegen/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	instrumentationPrefix = "invoicer/"
	defaultSamplingRatio  = 0.1
	exporterDialTimeout   = 5 * time.Second
)

var Module = fx.Module("tracing",
	fx.Provide(NewProvider),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + name)
}

// NewProvider installs W3C trace context propagation and the global tracer
// provider. With tracing disabled a noop provider is installed and nil is
// returned.
func NewProvider(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*sdktrace.TracerProvider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.TracingEnabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return nil, nil
	}

	protocol := strings.ToLower(strings.TrimSpace(cfg.TracingProtocol))
	endpoint := strings.TrimSpace(cfg.TracingEndpoint)
	exporter, err := newExporter(protocol, endpoint)
	if err != nil {
		return nil, err
	}

	ratio := samplingRatio(cfg.TracingSamplingRatio)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.AppName),
			attribute.String("service.version", cfg.AppVersion),
			attribute.String("deployment.environment", cfg.Environment),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	log.Info("tracing enabled",
		zap.String("protocol", protocol),
		zap.String("endpoint", endpoint),
		zap.Float64("sampling_ratio", ratio),
	)
	return provider, nil
}

func newExporter(protocol, endpoint string) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), exporterDialTimeout)
	defer cancel()

	switch protocol {
	case "", "grpc", "grpc/protobuf":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http", "http/protobuf":
		var opts []otlptracehttp.Option
		if endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
}

// samplingRatio falls back to the default for unset values and caps at 1.
func samplingRatio(v float64) float64 {
	switch {
	case v <= 0:
		return defaultSamplingRatio
	case v > 1:
		return 1
	}
	return v
}
