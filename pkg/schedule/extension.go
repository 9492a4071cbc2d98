package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/event"
	"mercator-hq/keeper/pkg/lifecycle"
)

// Job names used by Extension.
const (
	JobReload = "reload"
	JobPrune  = "journal-prune"
)

// Extension drives periodic work from the daemon settings: a reload on
// reload.schedule and journal pruning on journal.prune_schedule. Schedules
// are parsed while the cycle validates and swapped in when it commits.
func Extension[C any](s *Scheduler, extract func(C) config.Settings) lifecycle.Extension[C] {
	return lifecycle.ExtensionFunc[C](func(ctl *lifecycle.Controller[C]) error {
		rt := ctl.Runtime()

		reload := func(context.Context) {
			ctl.Post(event.Reload().From("schedule"))
		}

		var retention atomic.Int64
		prune := func(ctx context.Context) {
			days := int(retention.Load())
			if days <= 0 {
				return
			}
			cutoff := time.Now().AddDate(0, 0, -days)
			n, err := rt.Journal().Prune(ctx, cutoff)
			if err != nil {
				ctl.Logger().Error("journal pruning failed", "error", err)
				return
			}
			ctl.Logger().Info("journal pruned", "deleted", n, "retention_days", days)
		}

		if err := ctl.OnValidate("schedule", func(_ context.Context, cycle *lifecycle.Cycle, cfg C) error {
			settings := extract(cfg)
			if err := Parse(settings.Reload.Schedule); err != nil {
				return err
			}
			if err := Parse(settings.Journal.PruneSchedule); err != nil {
				return err
			}

			cycle.OnCommit(func() {
				retention.Store(int64(settings.Journal.RetentionDays))
				// Specs were parsed above, Set cannot fail here.
				_ = s.Set(JobReload, settings.Reload.Schedule, reload)
				_ = s.Set(JobPrune, settings.Journal.PruneSchedule, prune)
				s.Start()
			})
			return nil
		}); err != nil {
			return err
		}

		return ctl.OnTerminate("schedule", s.Stop)
	})
}
