package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "admin.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate checks s and returns a ValidationError listing every problem,
// or nil when s is valid. Field paths are prefixed with prefix when it is
// not empty, so embedded settings report their full path.
func Validate(s *Settings, prefix string) error {
	var errs []FieldError

	errs = append(errs, validateLogging(&s.Logging)...)
	errs = append(errs, validateAdmin(&s.Admin)...)
	errs = append(errs, validateShutdown(&s.Shutdown)...)
	errs = append(errs, validateReload(&s.Reload)...)
	errs = append(errs, validateJournal(&s.Journal)...)
	errs = append(errs, validateTracing(&s.Tracing)...)

	if len(errs) == 0 {
		return nil
	}
	if prefix != "" {
		for i := range errs {
			errs[i].Field = prefix + "." + errs[i].Field
		}
	}
	return ValidationError{Errors: errs}
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Level),
		})
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Format),
		})
	}

	if strings.TrimSpace(cfg.Output) == "" {
		errs = append(errs, FieldError{Field: "logging.output", Message: "output is required"})
	}

	return errs
}

func validateAdmin(cfg *AdminConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled {
		if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "admin.listen_address",
				Message: fmt.Sprintf("invalid address %q: %v", cfg.ListenAddress, err),
			})
		}
	}
	if cfg.ReloadRate < 0 {
		errs = append(errs, FieldError{Field: "admin.reload_rate", Message: "must not be negative"})
	}
	if cfg.ReloadBurst < 0 {
		errs = append(errs, FieldError{Field: "admin.reload_burst", Message: "must not be negative"})
	}

	return errs
}

func validateShutdown(cfg *ShutdownConfig) []FieldError {
	var errs []FieldError

	if cfg.Grace < 0 {
		errs = append(errs, FieldError{Field: "shutdown.grace", Message: "must not be negative"})
	}
	if cfg.HookTimeout <= 0 {
		errs = append(errs, FieldError{Field: "shutdown.hook_timeout", Message: "must be positive"})
	}

	return errs
}

func validateReload(cfg *ReloadConfig) []FieldError {
	var errs []FieldError

	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{Field: "reload.debounce", Message: "must not be negative"})
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "reload.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
			})
		}
	}

	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "journal.retention_days", Message: "must not be negative"})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.PruneSchedule, err),
			})
		}
	}

	return errs
}

func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "tracing.sample_ratio",
			Message: fmt.Sprintf("sample ratio %v must be between 0 and 1", cfg.SampleRatio),
		})
	}
	if cfg.Enabled && cfg.Endpoint == "" {
		errs = append(errs, FieldError{Field: "tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
	}

	return errs
}
