package logging

import (
	"context"
	"log/slog"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/lifecycle"
)

// Extension reconfigures l from the logging section of every committed
// configuration. The new output is opened while the cycle validates, so an
// unwritable log file rejects the cycle instead of losing logs. The swap
// happens on commit; a "logging" post-config hook then reports level changes.
func Extension[C any](l *Logger, extract func(C) config.LoggingConfig) lifecycle.Extension[C] {
	return lifecycle.ExtensionFunc[C](func(ctl *lifecycle.Controller[C]) error {
		// Only touched from the controller goroutine.
		previous := l.Level()

		if err := ctl.OnValidate("logging", func(_ context.Context, cycle *lifecycle.Cycle, cfg C) error {
			p, err := l.Prepare(extract(cfg))
			if err != nil {
				return err
			}
			cycle.OnCommit(p.Apply)
			cycle.OnAbort(p.Discard)
			return nil
		}); err != nil {
			return err
		}

		return ctl.OnPostConfig("logging", func(ctx context.Context, snap *config.Snapshot[C]) error {
			current := l.Level()
			if current != previous {
				l.Slog().InfoContext(ctx, "log level changed",
					"from", previous.String(),
					"to", current.String(),
					"version", snap.Version())
			}
			previous = current
			applied := l.Config()
			l.Slog().DebugContext(ctx, "logging configured",
				slog.String("level", applied.Level),
				slog.String("format", applied.Format),
				slog.String("output", applied.Output))
			return nil
		})
	})
}
