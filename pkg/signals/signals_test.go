package signals

import (
	"testing"

	"mercator-hq/keeper/pkg/event"
)

func TestDefaultMappingTerminatesOnInterrupt(t *testing.T) {
	m := DefaultMapping()
	sig, err := Parse("INT")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m[sig] != event.Terminate() {
		t.Errorf("expected SIGINT to terminate, got %+v", m[sig])
	}
}

func TestParseMappingRejectsMalformedEntries(t *testing.T) {
	for _, entry := range []string{"SIGTERM", "SIGNOPE=reload", "SIGTERM=explode"} {
		if _, err := ParseMapping([]string{entry}); err == nil {
			t.Errorf("expected error for %q", entry)
		}
	}
}

func TestMappingClone(t *testing.T) {
	m := DefaultMapping()
	c := m.Clone()
	for sig := range c {
		delete(c, sig)
	}
	if len(m) == 0 {
		t.Error("clone shares storage with original")
	}
}
