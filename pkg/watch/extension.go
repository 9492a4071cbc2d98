package watch

import (
	"context"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/lifecycle"
)

// Extension runs a Watcher over paths as a body. Each commit applies the
// reload section: watch toggles reload posting and debounce sets the quiet
// period.
func Extension[C any](paths []string, extract func(C) config.ReloadConfig) lifecycle.Extension[C] {
	return lifecycle.ExtensionFunc[C](func(ctl *lifecycle.Controller[C]) error {
		w := New(Config{Paths: paths}, ctl, ctl.Logger())
		w.SetEnabled(false)

		if err := ctl.OnPostConfig("watch", func(_ context.Context, snap *config.Snapshot[C]) error {
			rc := extract(snap.Value())
			if was := w.Enabled(); was != rc.Watch {
				ctl.Logger().Info("configuration watching toggled", "enabled", rc.Watch)
			}
			w.SetEnabled(rc.Watch)
			w.SetDebounce(rc.Debounce)
			return nil
		}); err != nil {
			return err
		}

		return ctl.OnBody("watch", func(ctx context.Context, _ *lifecycle.Runtime[C]) error {
			return w.Run(ctx)
		})
	})
}
