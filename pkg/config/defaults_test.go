package config

import (
	"reflect"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var s Settings
	ApplyDefaults(&s)

	if s.Logging.Level != DefaultLogLevel {
		t.Errorf("expected level %q, got %q", DefaultLogLevel, s.Logging.Level)
	}
	if s.Logging.Format != DefaultLogFormat {
		t.Errorf("expected format %q, got %q", DefaultLogFormat, s.Logging.Format)
	}
	if s.Shutdown.HookTimeout != DefaultShutdownHookTimeout {
		t.Errorf("expected hook timeout %v, got %v", DefaultShutdownHookTimeout, s.Shutdown.HookTimeout)
	}
	if s.Admin.ListenAddress != DefaultAdminListenAddress {
		t.Errorf("expected admin address %q, got %q", DefaultAdminListenAddress, s.Admin.ListenAddress)
	}
	if s.Admin.Enabled != DefaultAdminEnabled {
		t.Errorf("expected admin enabled %v, got %v", DefaultAdminEnabled, s.Admin.Enabled)
	}
	if s.Journal.PruneSchedule != DefaultJournalPruneSchedule {
		t.Errorf("expected prune schedule %q, got %q", DefaultJournalPruneSchedule, s.Journal.PruneSchedule)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	s := Settings{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(&s)

	if s.Logging.Level != "debug" {
		t.Errorf("expected explicit level to survive, got %q", s.Logging.Level)
	}
}

func TestApplyDefaultsIdempotent(t *testing.T) {
	first := DefaultSettings()
	second := first
	ApplyDefaults(&second)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("applying defaults twice changed settings:\n%+v\n%+v", first, second)
	}
}

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings()
	if err := Validate(&s, ""); err != nil {
		t.Fatalf("default settings should be valid: %v", err)
	}
}
