package cli

import (
	"errors"
	"fmt"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/lifecycle"
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitError carries the process exit code a command wants.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// NewExitError wraps err with the exit code lifecycle.ExitCode assigns it.
func NewExitError(err error) *ExitError {
	return &ExitError{Code: lifecycle.ExitCode(err), Err: err}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return lifecycle.ExitOK
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return lifecycle.ExitCode(err)
}

// ConfigErrors flattens a load or validation failure into one ConfigError
// per offending field.
func ConfigErrors(err error) []*ConfigError {
	if err == nil {
		return nil
	}

	var verr config.ValidationError
	if errors.As(err, &verr) && len(verr.Errors) > 0 {
		out := make([]*ConfigError, 0, len(verr.Errors))
		for _, fe := range verr.Errors {
			out = append(out, NewConfigError(fe.Field, fe.Message))
		}
		return out
	}

	var lerr *config.LoadError
	if errors.As(err, &lerr) {
		field := lerr.Field
		if field == "" {
			field = lerr.Source
		}
		msg := string(lerr.Reason)
		if lerr.Err != nil {
			msg = fmt.Sprintf("%s: %v", lerr.Reason, lerr.Err)
		}
		return []*ConfigError{NewConfigError(field, msg)}
	}

	return []*ConfigError{NewConfigError("", err.Error())}
}
