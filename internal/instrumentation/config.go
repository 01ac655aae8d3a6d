package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: outlookctl)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// ServiceInstanceID is the unique instance identifier (default: hostname)
	ServiceInstanceID string

	// Backend is the store backend sessions open (ole, fixture). It is
	// attached to every exported metric and span as outlook.backend.
	Backend string

	// ReadOnly is true unless write tools are enabled (--yolo).
	ReadOnly bool

	// Enabled determines if instrumentation is active (default: false)
	// The serve command enables it when --metrics is set, or via
	// OUTLOOKCTL_INSTRUMENTATION_ENABLED=true
	Enabled bool

	// MetricsExporter specifies the metrics exporter type
	// Options: "prometheus", "otlp", "stdout" (default: "prometheus")
	MetricsExporter string

	// TracingExporter specifies the tracing exporter type
	// Options: "otlp", "stdout", "none" (default: "none")
	TracingExporter string

	// OTLPEndpoint is the OTLP collector endpoint
	// Example: "localhost:4318" (without protocol prefix)
	OTLPEndpoint string

	// OTLPInsecure controls whether to use insecure HTTP for OTLP export
	// When false (default), uses TLS for secure transport
	// Set to true only for local development or testing with unencrypted endpoints
	// WARNING: Never use insecure transport in production - traces may contain
	// sensitive metadata and should be encrypted in transit
	OTLPInsecure bool

	// TraceSamplingRate is the sampling rate for traces (0.0 to 1.0, default: 0.1)
	TraceSamplingRate float64

	// PrometheusEndpoint is the path for the Prometheus metrics endpoint (default: "/metrics")
	PrometheusEndpoint string

	// DetailedLabels controls whether high-cardinality labels are included.
	// When false (default), only essential labels are included.
	// When true, attendee domains are added to free/busy metrics.
	// For production, keep detailedLabels disabled to avoid cardinality explosion.
	DetailedLabels bool

	// AuditLogging configures audit logging behavior.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool

	// IncludePII controls whether to include full attendee addresses in audit logs.
	// When false (default), only anonymized identifiers are logged.
	IncludePII bool

	// LogLevel sets the slog level for audit log messages (default: INFO).
	// Options: "debug", "info", "warn", "error"
	// Note: Audit events are always logged regardless of this level.
	LogLevel string
}

// DefaultConfig returns a Config with sensible defaults based on environment variables.
func DefaultConfig() Config {
	config := Config{
		ServiceName:        getEnvOrDefault("OTEL_SERVICE_NAME", "outlookctl"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  getEnvOrDefault("OTEL_SERVICE_INSTANCE_ID", ""),
		ReadOnly:           true,
		Enabled:            getEnvBoolOrDefault(envPrefix+"INSTRUMENTATION_ENABLED", false),
		MetricsExporter:    getEnvOrDefault(envPrefix+"METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    getEnvOrDefault(envPrefix+"TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: getEnvOrDefault(envPrefix+"PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     getEnvBoolOrDefault(envPrefix+"METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    getEnvBoolOrDefault(envPrefix+"AUDIT_LOGGING_ENABLED", true),
			IncludePII: getEnvBoolOrDefault(envPrefix+"AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   getEnvOrDefault(envPrefix+"AUDIT_LOGGING_LEVEL", "info"),
		},
	}

	return config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Validate sampling rate is within bounds
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	// Validate metrics exporter
	validMetricsExporters := map[string]bool{ExporterPrometheus: true, ExporterOTLP: true, ExporterStdout: true}
	if c.MetricsExporter != "" && !validMetricsExporters[c.MetricsExporter] {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	// Validate tracing exporter
	validTracingExporters := map[string]bool{ExporterOTLP: true, ExporterStdout: true, ExporterNone: true}
	if c.TracingExporter != "" && !validTracingExporters[c.TracingExporter] {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	// OTLP endpoint required when using OTLP exporters
	if c.TracingExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
	}
	if c.MetricsExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
	}

	return nil
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the boolean value of an environment variable or a default value.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvFloatOrDefault returns the float64 value of an environment variable or a default value.
func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// envPrefix namespaces the non-OTel environment variables.
const envPrefix = "OUTLOOKCTL_"

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	// Handle release results
	ResultOK     = "ok"
	ResultFailed = "failed"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
