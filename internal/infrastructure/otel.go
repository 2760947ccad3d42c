package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"regkareport/internal/config"
)

// MeterName is the instrumentation scope for tracer and meter
const MeterName = "regkareport"

// Telemetry holds the tracing and metrics providers of one CLI invocation.
// Spans go to a trace file through the stdout exporter; metrics are
// collected into a Prometheus registry and written as a textfile on Shutdown.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	Metrics        *PipelineMetrics

	traceFile *os.File
	textfile  string
	logger    *slog.Logger
}

// PipelineMetrics are the counters recorded by the pipeline stages
type PipelineMetrics struct {
	FragmentsMerged metric.Int64Counter
	LinesMerged     metric.Int64Counter
	RowsLoaded      metric.Int64Counter
	GroupsReported  metric.Int64Counter
	StepFailures    metric.Int64Counter
	StepDuration    metric.Float64Histogram
}

// InitializeTelemetry sets up tracing (when enabled) and metrics
func InitializeTelemetry(cfg config.TelemetryConfig, version string, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(version),
	)

	t := &Telemetry{
		textfile: cfg.MetricsTextfile,
		logger:   logger,
	}

	if cfg.EnableTracing {
		if err := t.initializeTracing(cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	} else {
		t.Tracer = otel.GetTracerProvider().Tracer(MeterName)
	}

	if err := t.initializeMetrics(res, version); err != nil {
		t.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.String("trace_file", cfg.TraceFile),
		slog.String("metrics_textfile", cfg.MetricsTextfile))

	return t, nil
}

// initializeTracing sets up the tracer provider with a synchronous file exporter
func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}
	f, err := os.Create(cfg.TraceFile)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	t.traceFile = f
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(MeterName)
	return nil
}

// initializeMetrics wires the otel meter provider to a private Prometheus registry
func (t *Telemetry) initializeMetrics(res *resource.Resource, version string) error {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	t.Registry = registry
	t.MeterProvider = mp
	t.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(version))

	metrics, err := CreatePipelineMetrics(t.Meter)
	if err != nil {
		return err
	}
	t.Metrics = metrics
	return nil
}

// CreatePipelineMetrics creates the pipeline counters on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	fragmentsMerged, err := meter.Int64Counter(
		"regka_fragments_merged",
		metric.WithDescription("Fragment files merged and removed"),
	)
	if err != nil {
		return nil, err
	}

	linesMerged, err := meter.Int64Counter(
		"regka_lines_merged",
		metric.WithDescription("Non-empty fragment lines written to the merged file"),
	)
	if err != nil {
		return nil, err
	}

	rowsLoaded, err := meter.Int64Counter(
		"regka_rows_loaded",
		metric.WithDescription("Result rows persisted to the store"),
	)
	if err != nil {
		return nil, err
	}

	groupsReported, err := meter.Int64Counter(
		"regka_groups_reported",
		metric.WithDescription("Aggregation groups written to the workbook"),
	)
	if err != nil {
		return nil, err
	}

	stepFailures, err := meter.Int64Counter(
		"regka_step_failures",
		metric.WithDescription("Pipeline steps that failed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"regka_step_duration",
		metric.WithDescription("Pipeline step execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		FragmentsMerged: fragmentsMerged,
		LinesMerged:     linesMerged,
		RowsLoaded:      rowsLoaded,
		GroupsReported:  groupsReported,
		StepFailures:    stepFailures,
		StepDuration:    stepDuration,
	}, nil
}

// RecordStep records the duration and outcome of one pipeline step
func (m *PipelineMetrics) RecordStep(ctx context.Context, stepID string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("step", stepID))
	m.StepDuration.Record(ctx, d.Seconds(), attrs)
	if err != nil {
		m.StepFailures.Add(ctx, 1, attrs)
	}
}

// StartSpan starts a span on the telemetry tracer. A nil Telemetry yields
// a span from the global provider.
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(MeterName)
	if t != nil && t.Tracer != nil {
		tracer = t.Tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes providers, writes the metrics textfile and closes the trace file
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error

	if t.textfile != "" && t.Registry != nil {
		if err := os.MkdirAll(filepath.Dir(t.textfile), 0755); err != nil {
			errs = append(errs, fmt.Errorf("failed to create metrics directory: %w", err))
		} else if err := promclient.WriteToTextfile(t.textfile, t.Registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics textfile: %w", err))
		} else {
			t.logger.InfoContext(ctx, "Metrics written", slog.String("path", t.textfile))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if err := t.closeTraceFile(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (t *Telemetry) closeTraceFile() error {
	if t.traceFile == nil {
		return nil
	}
	err := t.traceFile.Close()
	t.traceFile = nil
	return err
}
