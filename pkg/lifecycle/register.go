package lifecycle

import (
	"context"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/event"
)

// Register adds hook to stage. See Registry.Register.
func (c *Controller[C]) Register(stage Stage, name string, hook any) error {
	return c.registry.Register(stage, name, hook)
}

// OnBeforeConfig registers fn to run before every load.
func (c *Controller[C]) OnBeforeConfig(name string, fn func(ctx context.Context, cycle *Cycle) error) error {
	return c.registry.Register(StageBeforeConfig, name, BeforeConfigFunc(fn))
}

// OnValidate registers a validator. Validators run in registration order and
// the first failure rejects the whole cycle.
func (c *Controller[C]) OnValidate(name string, fn func(ctx context.Context, cycle *Cycle, cfg C) error) error {
	return c.registry.Register(StageValidate, name, ValidateFunc[C](fn))
}

// OnMutate registers a mutator. fn must be a pure transformation of its
// input with no side effects: if a later mutator fails, the cycle is
// discarded and nothing is rolled back.
func (c *Controller[C]) OnMutate(name string, fn func(ctx context.Context, cfg C) (C, error)) error {
	return c.registry.Register(StageMutate, name, MutateFunc[C](fn))
}

// OnPostConfig registers fn to run after each commit, the initial one
// included, in registration order.
func (c *Controller[C]) OnPostConfig(name string, fn func(ctx context.Context, snap *config.Snapshot[C]) error) error {
	return c.registry.Register(StagePostConfig, name, PostConfigFunc[C](fn))
}

// OnBody registers a body. Bodies start together once Running is reached;
// the first one to return requests shutdown.
func (c *Controller[C]) OnBody(name string, fn func(ctx context.Context, rt *Runtime[C]) error) error {
	return c.registry.Register(StageBody, name, BodyFunc[C](fn))
}

// OnTerminate registers a cleanup hook. Terminate hooks run in reverse
// registration order.
func (c *Controller[C]) OnTerminate(name string, fn func(ctx context.Context) error) error {
	return c.registry.Register(StageTerminate, name, TerminateFunc(fn))
}

// OnAction registers a handler for custom actions tagged tag.
func (c *Controller[C]) OnAction(tag, name string, fn func(ctx context.Context, rt *Runtime[C], a event.Action) error) error {
	return c.registry.RegisterAction(tag, name, ActionFunc[C](fn))
}
