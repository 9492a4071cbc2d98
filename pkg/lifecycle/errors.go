package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Process exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitStartup  = 1
	ExitDegraded = 2
	ExitBody     = 3
)

var (
	// ErrAlreadyStarted is returned by Run when called more than once.
	ErrAlreadyStarted = errors.New("lifecycle: controller already started")

	// ErrNoLoader is returned by Run when the controller has no loader.
	ErrNoLoader = errors.New("lifecycle: no configuration loader")
)

// RegistrationError is returned when a hook cannot be registered.
type RegistrationError struct {
	Stage  Stage
	Name   string
	Reason string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s hook %q: %s", e.Stage, e.Name, e.Reason)
}

// ValidationError is returned when a validator rejects a configuration.
type ValidationError struct {
	Hook string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q rejected configuration: %v", e.Hook, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// MutationError is returned when a mutator fails.
type MutationError struct {
	Hook string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutator %q failed: %v", e.Hook, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// HookError reports a failing hook outside the validate and mutate stages,
// or a panicking commit callback (Stage is StageValidate, Hook "commit").
type HookError struct {
	Stage Stage
	Hook  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook %q: %v", e.Stage, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// HookTimeoutError reports a terminate hook abandoned after its budget.
type HookTimeoutError struct {
	Hook    string
	Timeout time.Duration
}

func (e *HookTimeoutError) Error() string {
	return fmt.Sprintf("terminate hook %q abandoned after %v", e.Hook, e.Timeout)
}

// StartupError wraps the failure that kept the controller from reaching
// Running.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed: %v", e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// ShutdownError describes an unclean shutdown.
type ShutdownError struct {
	// BodyErr is the first error returned by a body.
	BodyErr error

	// BodiesAbandoned is set when bodies did not return within the grace
	// period.
	BodiesAbandoned bool

	// Timeouts lists abandoned terminate hooks.
	Timeouts []*HookTimeoutError

	// Failures lists terminate hooks that returned an error.
	Failures []error
}

// Degraded reports whether cleanup was incomplete.
func (e *ShutdownError) Degraded() bool {
	return e.BodiesAbandoned || len(e.Timeouts) > 0 || len(e.Failures) > 0
}

func (e *ShutdownError) empty() bool {
	return e.BodyErr == nil && !e.Degraded()
}

func (e *ShutdownError) Error() string {
	var parts []string
	if e.BodyErr != nil {
		parts = append(parts, fmt.Sprintf("body failed: %v", e.BodyErr))
	}
	if e.BodiesAbandoned {
		parts = append(parts, "bodies did not stop within the grace period")
	}
	for _, t := range e.Timeouts {
		parts = append(parts, t.Error())
	}
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return "shutdown: " + strings.Join(parts, "; ")
}

// Unwrap exposes the body error and every hook error to errors.Is/As.
func (e *ShutdownError) Unwrap() []error {
	var errs []error
	if e.BodyErr != nil {
		errs = append(errs, e.BodyErr)
	}
	for _, t := range e.Timeouts {
		errs = append(errs, t)
	}
	return append(errs, e.Failures...)
}

// ExitCode maps the result of Controller.Run to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var startup *StartupError
	if errors.As(err, &startup) {
		return ExitStartup
	}

	var shutdown *ShutdownError
	if errors.As(err, &shutdown) {
		if shutdown.Degraded() {
			return ExitDegraded
		}
		return ExitBody
	}

	return ExitStartup
}

// ActionError reports a failing custom action handler.
type ActionError struct {
	Tag  string
	Hook string
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("custom action %q handler %q: %v", e.Tag, e.Hook, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
