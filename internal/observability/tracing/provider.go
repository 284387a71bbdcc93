package tracing

import (
	"context"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultSampleRatio is used when TRACE_SAMPLE_RATIO is unset or invalid.
const DefaultSampleRatio = 1.0

// SampleRatioFromEnv reads TRACE_SAMPLE_RATIO, a value in [0, 1].
func SampleRatioFromEnv() float64 {
	v := os.Getenv("TRACE_SAMPLE_RATIO")
	if v == "" {
		return DefaultSampleRatio
	}
	ratio, err := strconv.ParseFloat(v, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return DefaultSampleRatio
	}
	return ratio
}

// InitProvider installs a global tracer provider and the W3C trace context
// propagator. Spans get trace IDs for log correlation; exporters are attached
// by passing span processors. The returned function flushes and shuts the
// provider down.
func InitProvider(ratio float64, processors ...sdktrace.SpanProcessor) func(context.Context) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown
}
