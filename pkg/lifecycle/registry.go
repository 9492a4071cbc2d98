package lifecycle

import (
	"fmt"
	"sync"
)

type entry struct {
	name string
	hook any
}

// Registry holds the hooks of each stage in registration order. It accepts
// registrations until frozen and is read-only afterwards. Entries cannot be
// removed.
type Registry[C any] struct {
	mu      sync.RWMutex
	frozen  bool
	stages  [numStages][]entry
	actions map[string][]entry
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{actions: make(map[string][]entry)}
}

// Register appends hook to stage. hook must implement the stage's
// interface (see Stage). It fails with *RegistrationError once the
// registry is frozen, leaving the registry unchanged.
func (r *Registry[C]) Register(stage Stage, name string, hook any) error {
	if stage < 0 || stage >= numStages {
		return &RegistrationError{Stage: stage, Name: name, Reason: "unknown stage"}
	}
	if hook == nil {
		return &RegistrationError{Stage: stage, Name: name, Reason: "nil hook"}
	}
	if !acceptsHook[C](stage, hook) {
		return &RegistrationError{
			Stage:  stage,
			Name:   name,
			Reason: fmt.Sprintf("%T does not implement the %s hook interface", hook, stage),
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &RegistrationError{Stage: stage, Name: name, Reason: "registry is frozen"}
	}
	r.stages[stage] = append(r.stages[stage], entry{name: name, hook: hook})
	return nil
}

// RegisterAction appends a handler for custom actions tagged tag.
func (r *Registry[C]) RegisterAction(tag, name string, h ActionHandler[C]) error {
	if tag == "" || h == nil {
		return &RegistrationError{Stage: StageBody, Name: name, Reason: "custom action needs a tag and a handler"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &RegistrationError{Stage: StageBody, Name: name, Reason: "registry is frozen"}
	}
	r.actions[tag] = append(r.actions[tag], entry{name: name, hook: h})
	return nil
}

// Frozen reports whether the registry still accepts registrations.
func (r *Registry[C]) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Len returns the number of hooks registered for stage.
func (r *Registry[C]) Len(stage Stage) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stages[stage])
}

// Names returns hook names for stage in iteration order.
func (r *Registry[C]) Names(stage Stage) []string {
	hooks := r.hooks(stage)
	names := make([]string, len(hooks))
	for i, e := range hooks {
		names[i] = e.name
	}
	return names
}

func (r *Registry[C]) freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// hooks returns a copy of the stage's entries in iteration order:
// registration order, except StageTerminate which is reversed.
func (r *Registry[C]) hooks(stage Stage) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.stages[stage]
	out := make([]entry, len(src))
	if stage == StageTerminate {
		for i, e := range src {
			out[len(src)-1-i] = e
		}
		return out
	}
	copy(out, src)
	return out
}

func (r *Registry[C]) actionHandlers(tag string) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]entry(nil), r.actions[tag]...)
}
