// Package tracing sets up OpenTelemetry tracing for the daemon.
//
// Each configuration cycle and the final shutdown run inside a span opened
// by the lifecycle controller. This package provides the provider behind
// those spans: an OTLP gRPC exporter, a parent-based ratio sampler whose
// ratio follows reloads, and the W3C trace context propagator.
//
// # Usage
//
//	tracer, err := tracing.New(ctx, settings.Tracing, tracing.WithServiceVersion(version))
//	if err != nil {
//	    return err
//	}
//	ctl := lifecycle.New[AppConfig](loader, lifecycle.Options{Tracer: tracer.Tracer()})
//	ctl.With(tracing.Extension(tracer, func(c AppConfig) config.TracingConfig {
//	    return c.Daemon.Tracing
//	}))
//
// When tracing is disabled a noop tracer is returned and spans cost
// almost nothing.
package tracing
