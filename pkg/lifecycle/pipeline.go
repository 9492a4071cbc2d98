package lifecycle

import "context"

// runPipeline validates cfg with every validator, in order, stopping at the
// first rejection, then threads it through every mutator. It returns the
// final configuration or the first error; it never returns a partially
// processed value. A panicking hook counts as a rejection.
func runPipeline[C any](ctx context.Context, reg *Registry[C], cycle *Cycle, cfg C) (C, error) {
	var zero C

	for _, e := range reg.hooks(StageValidate) {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if err := safeCall(func() error { return e.hook.(Validator[C]).Validate(ctx, cycle, cfg) }); err != nil {
			return zero, &ValidationError{Hook: e.name, Err: err}
		}
	}

	for _, e := range reg.hooks(StageMutate) {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		var next C
		err := safeCall(func() (err error) {
			next, err = e.hook.(Mutator[C]).Mutate(ctx, cfg)
			return err
		})
		if err != nil {
			return zero, &MutationError{Hook: e.name, Err: err}
		}
		cfg = next
	}

	return cfg, nil
}
