package health

import (
	"context"
	"errors"
	"fmt"

	"mercator-hq/keeper/pkg/lifecycle"
)

// Attach wires the checker to ctl: liveness follows the lifecycle state and
// readiness requires a committed configuration while Running or reloading.
func Attach[C any](c *Checker, ctl *lifecycle.Controller[C]) {
	c.SetState(func() (string, bool) {
		s := ctl.State()
		return s.String(), s != lifecycle.Terminated
	})

	c.RegisterCheck("lifecycle", func(context.Context) error {
		switch s := ctl.State(); s {
		case lifecycle.Running, lifecycle.ReloadInProgress:
			return nil
		default:
			return fmt.Errorf("daemon is %s", s)
		}
	})

	c.RegisterCheck("config", func(context.Context) error {
		if ctl.Config() == nil {
			return errors.New("no configuration committed")
		}
		return nil
	})
}
