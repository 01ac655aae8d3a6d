package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Resource attributes describing which mailbox the process drives.
const (
	ResourceAttrBackend  = "outlook.backend"
	ResourceAttrReadOnly = "outlook.read_only"
)

// Provider owns the meter and tracer providers of one outlookctl
// process and the Metrics recorder sessions report to.
type Provider struct {
	config         Config
	resource       *resource.Resource
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *Metrics
	registry       *promclient.Registry
	enabled        bool
}

// NewProvider creates a provider for config. A disabled config yields a
// provider whose Metrics records nothing and whose Tracer is a no-op.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if !config.Enabled {
		return &Provider{
			config:  config,
			metrics: &Metrics{},
		}, nil
	}

	res, err := newResource(ctx, config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   config,
		resource: res,
		enabled:  true,
	}

	reader, err := p.newMetricReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}
	p.meterProvider = metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	)

	if p.tracerProvider, err = p.newTracerProvider(ctx); err != nil {
		if shutdownErr := p.meterProvider.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shutdown meter provider during cleanup: %w", shutdownErr))
		}
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	otel.SetMeterProvider(p.meterProvider)
	otel.SetTracerProvider(p.tracerProvider)

	p.metrics, err = NewMetrics(p.meterProvider.Meter(config.ServiceName), config.DetailedLabels)
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	slog.Debug("instrumentation enabled",
		"component", "instrumentation",
		"backend", config.Backend,
		"metrics_exporter", config.MetricsExporter,
		"tracing_exporter", config.TracingExporter,
	)
	return p, nil
}

// newResource describes the process: service identity plus the store
// backend and whether sessions may mutate the mailbox.
func newResource(ctx context.Context, config Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
		attribute.Bool(ResourceAttrReadOnly, config.ReadOnly),
	}
	if config.Backend != "" {
		attrs = append(attrs, attribute.String(ResourceAttrBackend, config.Backend))
	}

	instance := config.ServiceInstanceID
	if instance == "" {
		instance, _ = os.Hostname()
	}
	if instance != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(instance))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func (p *Provider) newMetricReader(ctx context.Context) (metric.Reader, error) {
	switch p.config.MetricsExporter {
	case ExporterPrometheus:
		// A private registry keeps repeated providers (tests, restarts)
		// from colliding in the global one.
		reg := promclient.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		p.registry = reg
		return exporter, nil

	case ExporterOTLP:
		if p.config.OTLPEndpoint == "" {
			return nil, fmt.Errorf("OTLP endpoint is required for OTLP metrics exporter; set OTEL_EXPORTER_OTLP_ENDPOINT or use 'prometheus' exporter")
		}
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(p.config.OTLPEndpoint)}
		if p.config.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter, metric.WithInterval(DefaultMetricInterval)), nil

	case ExporterStdout:
		slog.Warn("stdout metrics exporter enabled - for development/debugging only, not for production",
			"component", "instrumentation",
			"exporter", ExporterStdout,
		)
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter), nil

	default:
		return nil, fmt.Errorf("unsupported metrics exporter: %s", p.config.MetricsExporter)
	}
}

func (p *Provider) newTracerProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch p.config.TracingExporter {
	case ExporterNone, "":
		return sdktrace.NewTracerProvider(
			sdktrace.WithResource(p.resource),
			sdktrace.WithSampler(sdktrace.NeverSample()),
		), nil

	case ExporterOTLP:
		if p.config.OTLPEndpoint == "" {
			return nil, fmt.Errorf("OTLP endpoint is required for OTLP tracing exporter")
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(p.config.OTLPEndpoint)}
		if p.config.OTLPInsecure {
			// Spans carry folder names and attendee domains.
			slog.Warn("OTLP insecure transport enabled - traces may contain mailbox metadata, use only for development",
				"component", "instrumentation",
				"exporter", ExporterOTLP,
				"endpoint", p.config.OTLPEndpoint,
			)
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}

	case ExporterStdout:
		slog.Warn("stdout traces exporter enabled - for development/debugging only, not for production",
			"component", "instrumentation",
			"exporter", ExporterStdout,
		)
		exporter, err = stdouttrace.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", p.config.TracingExporter)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(p.resource),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(p.config.TraceSamplingRate))),
	), nil
}

// Metrics returns the recorder sessions and tools report to.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Resource returns the resource attached to exported telemetry, or nil
// when the provider is disabled.
func (p *Provider) Resource() *resource.Resource {
	return p.resource
}

// Tracer returns a tracer for creating spans.
func (p *Provider) Tracer(name string) trace.Tracer {
	if !p.enabled || p.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tracerProvider.Tracer(name)
}

// Gatherer returns the registry the Prometheus exporter writes to, or
// nil unless the prometheus exporter is configured.
func (p *Provider) Gatherer() promclient.Gatherer {
	if p.registry == nil {
		return nil
	}
	return p.registry
}

// Shutdown flushes pending telemetry and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled {
		return nil
	}

	var errs []error
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether instrumentation is active.
func (p *Provider) Enabled() bool {
	return p.enabled
}
