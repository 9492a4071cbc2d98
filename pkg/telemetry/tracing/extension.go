package tracing

import (
	"context"
	"time"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/lifecycle"
)

// shutdownTimeout bounds the final span flush.
const shutdownTimeout = 5 * time.Second

// Extension applies sample ratio changes from each committed configuration
// and shuts the provider down when the daemon terminates. Other tracing
// settings take effect on restart.
func Extension[C any](t *Tracer, extract func(C) config.TracingConfig) lifecycle.Extension[C] {
	return lifecycle.ExtensionFunc[C](func(ctl *lifecycle.Controller[C]) error {
		if err := ctl.OnPostConfig("tracing", func(ctx context.Context, snap *config.Snapshot[C]) error {
			next := extract(snap.Value())
			if t.restartRequired(next) {
				ctl.Logger().WarnContext(ctx, "tracing settings changed, restart to apply",
					"enabled", next.Enabled, "endpoint", next.Endpoint)
			}
			return t.SetSampleRatio(next.SampleRatio)
		}); err != nil {
			return err
		}

		return ctl.OnTerminate("tracing", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return t.Shutdown(ctx)
		})
	})
}
