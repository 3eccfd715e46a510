package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the otel meter and tracer providers for the process.
type Observability struct {
	meterProvider *metric.MeterProvider
	tracing       *Tracing
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	lookupLatency otelmetric.Float64Histogram
}

// New registers the otel prometheus exporter as the global MeterProvider.
// The returned value is always usable; instruments are nil when setup fails.
func New(serviceName string, tracing *Tracing) (*Observability, error) {
	if tracing == nil {
		tracing = NoopTracing()
	}

	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{tracing: tracing}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	lookupLatency, _ := meter.Float64Histogram(
		"nutrition.lookup.duration",
		otelmetric.WithDescription("Nutrition API round trip"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		tracing:       tracing,
		meter:         meter,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		lookupLatency: lookupLatency,
	}, nil
}

// Tracer returns a named tracer from the configured provider.
func (o *Observability) Tracer(name string) trace.Tracer {
	if o == nil || o.tracing == nil {
		return otel.Tracer(name)
	}
	return o.tracing.Tracer(name)
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordLookupDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o == nil || o.lookupLatency == nil {
		return
	}
	o.lookupLatency.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var firstErr error
	if o.meterProvider != nil {
		if err := o.meterProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if o.tracing != nil {
		if err := o.tracing.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
