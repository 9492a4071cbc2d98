// Package telemetry groups the observability packages of the keeper runtime.
//
// # Components
//
//   - logging: structured slog logging whose level, format and output follow
//     configuration reloads, with redaction of sensitive values
//   - metrics: Prometheus collectors for cycles, state and shutdown hooks
//   - tracing: OpenTelemetry tracer with a reloadable sample ratio
//   - health: liveness and readiness checks tied to the lifecycle state
//
// Each subpackage offers an Extension that wires it into a
// lifecycle.Controller:
//
//	logger, _ := logging.New(cfg.Daemon.Logging)
//	ctl := lifecycle.New[AppConfig](loader, lifecycle.Options{Logger: logger.Slog()})
//	_ = ctl.With(logging.Extension(logger, func(c AppConfig) config.LoggingConfig {
//		return c.Daemon.Logging
//	}))
package telemetry
