package observability

import (
	"context"
	"time"

	"easyapply/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability records cycle-level measurements through an otel meter
// exported on the default prometheus registry, and traces cycle phases.
type Observability struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	cycleCounter  otelmetric.Int64Counter
	cycleDuration otelmetric.Float64Histogram
	submitted     otelmetric.Int64Counter
}

// New sets up metrics and tracing. Spans go to the given processors; with
// none, spans are created but not exported.
func New(serviceName string, log logger.Logger, processors ...sdktrace.SpanProcessor) *Observability {
	var opts []sdktrace.TracerProviderOption
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	o := &Observability{tracerProvider: tp, tracer: tp.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	cycleCounter, _ := meter.Int64Counter(
		"cycles.processed",
		otelmetric.WithDescription("Number of job search cycles run"),
	)

	cycleDuration, _ := meter.Float64Histogram(
		"cycles.duration",
		otelmetric.WithDescription("Job search cycle duration"),
		otelmetric.WithUnit("ms"),
	)

	submitted, _ := meter.Int64Counter(
		"applications.submitted",
		otelmetric.WithDescription("Applications submitted, per keyword"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.cycleCounter = cycleCounter
	o.cycleDuration = cycleDuration
	o.submitted = submitted
	return o
}

func (o *Observability) RecordCycle(ctx context.Context, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.cycleCounter != nil {
		o.cycleCounter.Add(ctx, 1, attrs)
	}
	if o.cycleDuration != nil {
		o.cycleDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordSubmitted(ctx context.Context, keyword string, count int) {
	if o == nil || o.submitted == nil || count == 0 {
		return
	}
	o.submitted.Add(ctx, int64(count), otelmetric.WithAttributes(attribute.String("keyword", keyword)))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
