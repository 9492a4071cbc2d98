// Package lifecycle runs a long-lived daemon through its states:
//
//	Configuring → Running → (ReloadInProgress → Running)* → ShuttingDown → Terminated
//
// A Controller owns the hook registry, the signal mapping and the shared
// configuration cell. Hooks are registered per stage while the controller
// is Configuring:
//
//	ctl := lifecycle.New[Config](loader, lifecycle.Options{Logger: logger})
//	ctl.OnValidate("port", func(ctx context.Context, _ *lifecycle.Cycle, cfg Config) error {
//	    if cfg.Port == 0 {
//	        return errors.New("port is required")
//	    }
//	    return nil
//	})
//	ctl.OnBody("serve", serve)
//	ctl.OnTerminate("close-db", db.Close)
//	os.Exit(lifecycle.ExitCode(ctl.Run(ctx)))
//
// # Reloads
//
// Reload actions, from SIGHUP or any other source, re-run the before-config
// hooks, the loader, the validators and the mutators on the controller
// goroutine. Only a cycle that passes every step is committed; a rejected
// cycle leaves the current snapshot and its version untouched, and the
// error is logged, journaled and sent to Errors. Reloads never overlap: a
// reload requested while another is queued is coalesced with it. A
// Terminate that arrives mid-reload cancels the reload's context, so the
// loader and hooks must return once ctx is done; the cancelled cycle is
// rejected like any other. A panic in a hook or the loader also rejects
// the cycle.
//
// # Shutdown
//
// A Terminate action cancels the bodies' context, waits for them for the
// grace period and then runs terminate hooks last-registered first, each
// with its own budget. Hooks that overrun are abandoned and the shutdown
// is reported as degraded.
package lifecycle
