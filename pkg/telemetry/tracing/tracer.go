package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"mercator-hq/keeper/pkg/config"
)

const instrumentationName = "mercator-hq/keeper"

// Tracer wraps the OpenTelemetry tracer provider used for lifecycle spans.
type Tracer struct {
	config   config.TracingConfig
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	sampler  *ratioSampler
}

// Option customizes New.
type Option func(*options)

type options struct {
	exporter sdktrace.SpanExporter
	version  string
	global   bool
}

// WithExporter replaces the OTLP exporter.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithoutGlobal keeps New from installing the provider as the global one.
func WithoutGlobal() Option {
	return func(o *options) { o.global = false }
}

// New creates a Tracer from cfg. When tracing is disabled a noop tracer is
// returned and nothing is exported.
//
// The tracer must be shut down when no longer needed:
//
//	defer tracer.Shutdown(context.Background())
func New(ctx context.Context, cfg config.TracingConfig, opts ...Option) (*Tracer, error) {
	o := options{version: "dev", global: true}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tracer{config: cfg}
	if !cfg.Enabled {
		t.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return t, nil
	}

	sampler, err := newRatioSampler(cfg.SampleRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}
	t.sampler = sampler

	exporter := o.exporter
	if exporter == nil {
		exporter, err = newOTLPExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(o.version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	t.tracer = t.provider.Tracer(instrumentationName)

	if o.global {
		otel.SetTracerProvider(t.provider)
		otel.SetTextMapPropagator(
			propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			),
		)
	}

	return t, nil
}

// newOTLPExporter creates an OTLP gRPC exporter. The connection is
// established lazily, so an unreachable collector does not block startup.
func newOTLPExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent(instrumentationName)),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}

// Tracer returns the tracer to hand to lifecycle.Options.
func (t *Tracer) Tracer() trace.Tracer { return t.tracer }

// Enabled returns whether tracing is enabled.
func (t *Tracer) Enabled() bool { return t.provider != nil }

// SampleRatio returns the current sampling ratio, or 0 when disabled.
func (t *Tracer) SampleRatio() float64 {
	if t.sampler == nil {
		return 0
	}
	return t.sampler.Ratio()
}

// SetSampleRatio changes the sampling ratio of an enabled tracer.
func (t *Tracer) SetSampleRatio(ratio float64) error {
	if t.sampler == nil {
		return nil
	}
	return t.sampler.SetRatio(ratio)
}

// ForceFlush exports all finished spans.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.ForceFlush(ctx)
}

// Shutdown flushes any pending spans and shuts down the tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// restartRequired reports whether moving from the running configuration to
// next needs a new provider.
func (t *Tracer) restartRequired(next config.TracingConfig) bool {
	return next.Enabled != t.config.Enabled ||
		next.Endpoint != t.config.Endpoint ||
		next.Insecure != t.config.Insecure ||
		next.ServiceName != t.config.ServiceName
}
