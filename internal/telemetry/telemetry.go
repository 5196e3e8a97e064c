package telemetry

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Config holds OpenTelemetry configuration
type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceNamespace string
	ServiceVersion   string
	Environment      string
	OTLPEndpoint     string
	TracesSampler    string
	SampleRatio      float64
	MetricsInterval  time.Duration
}

// LoadConfig reads the standard OTEL_* variables plus ENVIRONMENT.
func LoadConfig() Config {
	cfg := Config{
		Enabled:          getEnv("OTEL_ENABLED", "true") != "false",
		ServiceName:      getEnv("OTEL_SERVICE_NAME", "clinic-gateway"),
		ServiceNamespace: getEnv("OTEL_SERVICE_NAMESPACE", "clinic"),
		ServiceVersion:   getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		Environment:      getEnv("ENVIRONMENT", "production"),
		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracesSampler:    getEnv("OTEL_TRACES_SAMPLER", "always_on"),
		SampleRatio:      0.1,
		MetricsInterval:  30 * time.Second,
	}
	if raw := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil && r >= 0 && r <= 1 {
			cfg.SampleRatio = r
		}
	}
	if raw := os.Getenv("OTEL_METRICS_EXPORT_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.MetricsInterval = d
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Provider holds the OpenTelemetry providers
type Provider struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	log            *zap.Logger
}

// InitProvider sets up tracing and metrics export. A collector that cannot
// be reached only disables the affected signal.
func InitProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{log: logger}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if !cfg.Enabled {
		logger.Info("telemetry export disabled")
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceNamespace(cfg.ServiceNamespace),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if tp, err := initTracerProvider(ctx, cfg, res); err != nil {
		logger.Warn("continuing without distributed tracing", zap.Error(err))
	} else {
		otel.SetTracerProvider(tp)
		p.TracerProvider = tp
	}

	if mp, err := initMeterProvider(ctx, cfg, res); err != nil {
		logger.Warn("continuing without metrics export", zap.Error(err))
	} else {
		otel.SetMeterProvider(mp)
		p.MeterProvider = mp
	}

	logger.Info("telemetry initialized",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.String("service", cfg.ServiceName),
		zap.Bool("tracing", p.TracerProvider != nil),
		zap.Bool("metrics", p.MeterProvider != nil))
	return p, nil
}

// Sampler maps the configured sampler name onto an SDK sampler.
func Sampler(cfg Config) trace.Sampler {
	switch cfg.TracesSampler {
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(cfg.SampleRatio)
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio))
	default:
		return trace.AlwaysSample()
	}
}

func initTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		otlptracegrpc.WithTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSampler(Sampler(cfg)),
		trace.WithBatcher(exporter,
			trace.WithBatchTimeout(5*time.Second),
			trace.WithMaxExportBatchSize(512),
		),
	), nil
}

func initMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*metric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		otlpmetricgrpc.WithTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter,
			metric.WithInterval(cfg.MetricsInterval),
		)),
	), nil
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	if p.TracerProvider != nil {
		if serr := p.TracerProvider.Shutdown(ctx); serr != nil {
			p.log.Error("error shutting down tracer provider", zap.Error(serr))
			err = serr
		}
	}
	if p.MeterProvider != nil {
		if serr := p.MeterProvider.Shutdown(ctx); serr != nil {
			p.log.Error("error shutting down meter provider", zap.Error(serr))
			if err == nil {
				err = serr
			}
		}
	}
	return err
}
