package lifecycle

import (
	"fmt"
	"reflect"
)

// Extension bundles related hooks. Apply registers them on the controller
// and must be called while the controller is Configuring.
type Extension[C any] interface {
	Apply(ctl *Controller[C]) error
}

// ExtensionFunc adapts a function to Extension.
type ExtensionFunc[C any] func(ctl *Controller[C]) error

// Apply calls f.
func (f ExtensionFunc[C]) Apply(ctl *Controller[C]) error { return f(ctl) }

// With applies each extension in order and stops at the first failure.
func (c *Controller[C]) With(exts ...Extension[C]) error {
	for _, ext := range exts {
		if err := c.apply(ext); err != nil {
			return err
		}
	}
	return nil
}

// WithSingleton applies ext unless an extension of the same concrete type
// was already applied through WithSingleton.
func (c *Controller[C]) WithSingleton(ext Extension[C]) error {
	t := reflect.TypeOf(ext)

	c.mu.Lock()
	_, seen := c.singletons[t]
	if !seen {
		c.singletons[t] = struct{}{}
	}
	c.mu.Unlock()

	if seen {
		c.logger.Debug("singleton extension already applied", "extension", t.String())
		return nil
	}
	return c.apply(ext)
}

func (c *Controller[C]) apply(ext Extension[C]) error {
	if c.registry.Frozen() {
		return &RegistrationError{Stage: StageBeforeConfig, Name: fmt.Sprintf("%T", ext), Reason: "registry is frozen"}
	}
	if err := ext.Apply(c); err != nil {
		return fmt.Errorf("apply extension %T: %w", ext, err)
	}
	return nil
}
