package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/patchwork/pkg/reconcile"
)

const defaultTracerName = "patchwork"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "patchwork").
	TracerName string

	// SpanName is the name of every patch span (default: "patchwork.patch").
	SpanName string

	// Provider supplies the tracer. If nil, the global provider is used.
	Provider trace.TracerProvider

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithSpanName sets the span name.
func WithSpanName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.SpanName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer is a reconcile.Observer that records one span per patch.
type Tracer struct {
	tracer   trace.Tracer
	spanName string
	attrs    []attribute.KeyValue
}

// NewTracer creates the tracing observer.
//
// Configure the global provider before creating it, or pass one with
// WithTracerProvider:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{
		TracerName: defaultTracerName,
		SpanName:   "patchwork.patch",
	}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.Provider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer:   tp.Tracer(config.TracerName),
		spanName: config.SpanName,
		attrs:    config.Attributes,
	}
}

// PatchStarted implements reconcile.Observer.
func (t *Tracer) PatchStarted(ctx context.Context) context.Context {
	ctx, _ = t.tracer.Start(ctx, t.spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.attrs...),
	)
	return ctx
}

// PatchFinished implements reconcile.Observer.
func (t *Tracer) PatchFinished(ctx context.Context, stats reconcile.Stats) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("patchwork.created", stats.Created),
		attribute.Int("patchwork.removed", stats.Removed),
		attribute.Int("patchwork.moved", stats.Moved),
		attribute.Int("patchwork.text_updates", stats.TextUpdates),
		attribute.Int("patchwork.patched", stats.Patched),
	)
	if stats.Aborted {
		span.SetStatus(codes.Error, "patch aborted")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// multi fans out to several observers.
type multi []reconcile.Observer

// Multi combines observers. PatchStarted runs in order, each receiving
// the context returned by the previous one; PatchFinished runs in
// reverse order.
func Multi(observers ...reconcile.Observer) reconcile.Observer {
	return multi(observers)
}

func (m multi) PatchStarted(ctx context.Context) context.Context {
	for _, o := range m {
		ctx = o.PatchStarted(ctx)
	}
	return ctx
}

func (m multi) PatchFinished(ctx context.Context, stats reconcile.Stats) {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].PatchFinished(ctx, stats)
	}
}
