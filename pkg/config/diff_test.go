package config

import (
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	old := DefaultSettings()
	updated := old
	updated.Logging.Level = "debug"
	updated.Admin.Enabled = true
	updated.Logging.RedactKeys = []string{"session"}

	got := Diff(old, updated)
	want := []string{"admin.enabled", "logging.level", "logging.redact_keys"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := Diff(old, old); len(got) != 0 {
		t.Errorf("expected no differences, got %v", got)
	}
}

func TestDiffScalar(t *testing.T) {
	if got := Diff(1, 2); !reflect.DeepEqual(got, []string{"."}) {
		t.Errorf("expected root path, got %v", got)
	}
}
