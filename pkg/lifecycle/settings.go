package lifecycle

import (
	"context"

	"mercator-hq/keeper/pkg/config"
)

// SettingsExtension validates the daemon settings embedded in C and applies
// the shutdown budgets after each commit. prefix is the dotted path of the
// settings inside C, used in validation messages.
func SettingsExtension[C any](prefix string, extract func(C) config.Settings) Extension[C] {
	return ExtensionFunc[C](func(ctl *Controller[C]) error {
		if err := ctl.OnValidate("settings", func(_ context.Context, _ *Cycle, cfg C) error {
			s := extract(cfg)
			return config.Validate(&s, prefix)
		}); err != nil {
			return err
		}

		return ctl.OnPostConfig("shutdown-budget", func(_ context.Context, snap *config.Snapshot[C]) error {
			s := extract(snap.Value())
			ctl.SetShutdownBudget(s.Shutdown.HookTimeout, s.Shutdown.Grace)
			return nil
		})
	})
}
