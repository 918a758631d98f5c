package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Observability owns the metric registry and the tracer used by the pipeline.
type Observability struct {
	registry       *prometheus.Registry
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	stageCounter  otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	questionsTotal             *prometheus.CounterVec
}

type Option func(*options)

type options struct {
	spanProcessors []sdktrace.SpanProcessor
}

// WithSpanProcessor registers an additional span processor on the tracer provider.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.spanProcessors = append(o.spanProcessors, sp)
	}
}

// New sets up Prometheus metrics and tracing. Spans are exported to Jaeger only
// when jaegerEndpoint is set.
func New(serviceName, jaegerEndpoint string, logger *zap.Logger, opts ...Option) (*Observability, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	meterProvider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := meterProvider.Meter(serviceName)

	stageCounter, err := meter.Int64Counter(
		"pipeline.stage.calls",
		otelmetric.WithDescription("Number of pipeline stage executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline.stage.duration",
		otelmetric.WithDescription("Pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage histogram: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	tracerOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if jaegerEndpoint != "" {
		jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("failed to create Jaeger exporter: %w", err)
		}
		tracerOpts = append(tracerOpts, sdktrace.WithBatcher(jaegerExporter))
		logger.Info("tracing enabled", zap.String("jaeger_endpoint", jaegerEndpoint))
	}
	for _, sp := range o.spanProcessors {
		tracerOpts = append(tracerOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tracerOpts...)

	obs := &Observability{
		registry:       registry,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
		stageCounter:   stageCounter,
		stageDuration:  stageDuration,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sql_assistant_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sql_assistant_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		questionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sql_assistant_questions_total",
				Help: "Answered and failed questions by outcome.",
			},
			[]string{"outcome"},
		),
	}
	registry.MustRegister(obs.httpRequestsTotal, obs.httpRequestDurationSeconds, obs.questionsTotal)

	return obs, nil
}

// Registry exposes the registry served at /metrics.
func (o *Observability) Registry() *prometheus.Registry {
	return o.registry
}

// ObserveStage starts a span for a pipeline stage. The returned function ends
// the span and records the stage's outcome and duration.
func (o *Observability) ObserveStage(ctx context.Context, stage string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "pipeline."+stage)

	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		attrs := otelmetric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		)
		o.stageCounter.Add(ctx, 1, attrs)
		o.stageDuration.Record(ctx, durationMillis(time.Since(start)), attrs)
	}
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// RecordQuestion counts a finished question by outcome label.
func (o *Observability) RecordQuestion(outcome string) {
	o.questionsTotal.WithLabelValues(outcome).Inc()
}

func (o *Observability) Shutdown(ctx context.Context) error {
	return errors.Join(
		o.tracerProvider.Shutdown(ctx),
		o.meterProvider.Shutdown(ctx),
	)
}
