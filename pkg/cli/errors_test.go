package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/keeper/pkg/config"
	"mercator-hq/keeper/pkg/lifecycle"
)

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "daemon.logging.level",
		Message: "invalid log level",
	}

	expected := "config error in daemon.logging.level: invalid log level"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	if got := NewConfigError("", "broken").Error(); got != "config error: broken" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("run", underlyingErr)

	expected := "command run failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should find the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, lifecycle.ExitOK},
		{"explicit", &ExitError{Code: 7}, 7},
		{"wrapped explicit", fmt.Errorf("check: %w", &ExitError{Code: 4}), 4},
		{"startup", &lifecycle.StartupError{Err: errors.New("bad")}, lifecycle.ExitStartup},
		{"degraded", &lifecycle.ShutdownError{Failures: []error{errors.New("hook")}}, lifecycle.ExitDegraded},
		{"body", &lifecycle.ShutdownError{BodyErr: errors.New("body")}, lifecycle.ExitBody},
		{"plain", errors.New("flag parse"), lifecycle.ExitStartup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewExitError(t *testing.T) {
	cause := &lifecycle.StartupError{Err: errors.New("bind")}
	err := NewExitError(cause)
	if err.Code != lifecycle.ExitStartup {
		t.Errorf("Code = %d, want %d", err.Code, lifecycle.ExitStartup)
	}
	if err.Error() != cause.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), cause.Error())
	}
}

func TestConfigErrors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		err := &lifecycle.ValidationError{Hook: "settings", Err: config.ValidationError{Errors: []config.FieldError{
			{Field: "daemon.logging.level", Message: "invalid"},
			{Field: "daemon.admin.listen_address", Message: "required"},
		}}}
		got := ConfigErrors(err)
		if len(got) != 2 || got[0].Field != "daemon.logging.level" || got[1].Message != "required" {
			t.Errorf("ConfigErrors() = %+v", got)
		}
	})

	t.Run("load", func(t *testing.T) {
		err := &config.LoadError{Source: "merged", Reason: config.ReasonMissingField, Field: "message", Err: errors.New("field message is required")}
		got := ConfigErrors(err)
		if len(got) != 1 || got[0].Field != "message" {
			t.Fatalf("ConfigErrors() = %+v", got)
		}
		if got[0].Message != "missing_field: field message is required" {
			t.Errorf("Message = %q", got[0].Message)
		}
	})

	t.Run("other", func(t *testing.T) {
		got := ConfigErrors(errors.New("boom"))
		if len(got) != 1 || got[0].Field != "" || got[0].Message != "boom" {
			t.Errorf("ConfigErrors() = %+v", got)
		}
	})

	if ConfigErrors(nil) != nil {
		t.Error("ConfigErrors(nil) should be nil")
	}
}
