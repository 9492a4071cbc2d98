package lifecycle

import (
	"context"
	"fmt"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/event"
)

// Stage identifies where in the lifecycle a hook runs.
type Stage int

const (
	// StageBeforeConfig runs before every load, initial and reload.
	StageBeforeConfig Stage = iota

	// StageValidate checks a freshly loaded configuration.
	StageValidate

	// StageMutate transforms a validated configuration.
	StageMutate

	// StagePostConfig runs after every successful commit.
	StagePostConfig

	// StageBody is the daemon's main work, run once Running is reached.
	StageBody

	// StageTerminate runs during shutdown, in reverse registration order.
	StageTerminate

	numStages
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageBeforeConfig:
		return "before_config"
	case StageValidate:
		return "validate"
	case StageMutate:
		return "mutate"
	case StagePostConfig:
		return "post_config"
	case StageBody:
		return "body"
	case StageTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// BeforeConfigHook runs before the configuration is loaded.
type BeforeConfigHook interface {
	BeforeConfig(ctx context.Context, cycle *Cycle) error
}

// Validator checks a loaded configuration without changing it. A validator
// that acquires resources must release them through cycle.OnAbort and may
// publish them through cycle.OnCommit.
type Validator[C any] interface {
	Validate(ctx context.Context, cycle *Cycle, cfg C) error
}

// Mutator transforms a validated configuration. Mutators must be pure: a
// cycle rejected by a later mutator is discarded without any rollback, so a
// mutator must not touch anything outside the value it returns.
type Mutator[C any] interface {
	Mutate(ctx context.Context, cfg C) (C, error)
}

// ConfigHook observes every committed snapshot, including the initial one.
type ConfigHook[C any] interface {
	PostConfig(ctx context.Context, snap *config.Snapshot[C]) error
}

// Body is the daemon's main work. It must return soon after ctx is done.
type Body[C any] interface {
	Run(ctx context.Context, rt *Runtime[C]) error
}

// Terminator releases resources during shutdown. ctx carries the hook's
// budget; a terminator that overruns it is abandoned.
type Terminator interface {
	Terminate(ctx context.Context) error
}

// ActionHandler handles custom actions for one tag.
type ActionHandler[C any] interface {
	HandleAction(ctx context.Context, rt *Runtime[C], action event.Action) error
}

// BeforeConfigFunc adapts a function to BeforeConfigHook.
type BeforeConfigFunc func(ctx context.Context, cycle *Cycle) error

// BeforeConfig calls f.
func (f BeforeConfigFunc) BeforeConfig(ctx context.Context, cycle *Cycle) error { return f(ctx, cycle) }

// ValidateFunc adapts a function to Validator.
type ValidateFunc[C any] func(ctx context.Context, cycle *Cycle, cfg C) error

// Validate calls f.
func (f ValidateFunc[C]) Validate(ctx context.Context, cycle *Cycle, cfg C) error {
	return f(ctx, cycle, cfg)
}

// MutateFunc adapts a pure function to Mutator.
type MutateFunc[C any] func(ctx context.Context, cfg C) (C, error)

// Mutate calls f.
func (f MutateFunc[C]) Mutate(ctx context.Context, cfg C) (C, error) { return f(ctx, cfg) }

// PostConfigFunc adapts a function to ConfigHook.
type PostConfigFunc[C any] func(ctx context.Context, snap *config.Snapshot[C]) error

// PostConfig calls f.
func (f PostConfigFunc[C]) PostConfig(ctx context.Context, snap *config.Snapshot[C]) error {
	return f(ctx, snap)
}

// BodyFunc adapts a function to Body.
type BodyFunc[C any] func(ctx context.Context, rt *Runtime[C]) error

// Run calls f.
func (f BodyFunc[C]) Run(ctx context.Context, rt *Runtime[C]) error { return f(ctx, rt) }

// TerminateFunc adapts a function to Terminator.
type TerminateFunc func(ctx context.Context) error

// Terminate calls f.
func (f TerminateFunc) Terminate(ctx context.Context) error { return f(ctx) }

// ActionFunc adapts a function to ActionHandler.
type ActionFunc[C any] func(ctx context.Context, rt *Runtime[C], action event.Action) error

// HandleAction calls f.
func (f ActionFunc[C]) HandleAction(ctx context.Context, rt *Runtime[C], action event.Action) error {
	return f(ctx, rt, action)
}

// acceptsHook reports whether hook implements the interface of stage.
func acceptsHook[C any](stage Stage, hook any) bool {
	var ok bool
	switch stage {
	case StageBeforeConfig:
		_, ok = hook.(BeforeConfigHook)
	case StageValidate:
		_, ok = hook.(Validator[C])
	case StageMutate:
		_, ok = hook.(Mutator[C])
	case StagePostConfig:
		_, ok = hook.(ConfigHook[C])
	case StageBody:
		_, ok = hook.(Body[C])
	case StageTerminate:
		_, ok = hook.(Terminator)
	}
	return ok
}
