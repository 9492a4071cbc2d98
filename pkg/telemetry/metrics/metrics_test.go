package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/keeper/pkg/config"
)

func testCollector(t *testing.T) *Collector {
	t.Helper()
	return NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, prometheus.NewRegistry())
}

func TestCollector_RecordCycle(t *testing.T) {
	c := testCollector(t)

	c.RecordCycle("reload", "committed", 10*time.Millisecond)
	c.RecordCycle("reload", "committed", 20*time.Millisecond)
	c.RecordCycle("reload", "rejected", time.Millisecond)

	if got := testutil.ToFloat64(c.lifecycle.cyclesTotal.WithLabelValues("reload", "committed")); got != 2 {
		t.Errorf("expected 2 committed reloads, got %v", got)
	}
	if got := testutil.ToFloat64(c.lifecycle.cyclesTotal.WithLabelValues("reload", "rejected")); got != 1 {
		t.Errorf("expected 1 rejected reload, got %v", got)
	}
}

func TestCollector_SetState(t *testing.T) {
	c := testCollector(t)

	c.SetState("configuring")
	c.SetState("running")

	if got := testutil.ToFloat64(c.lifecycle.state.WithLabelValues("running")); got != 1 {
		t.Errorf("expected running=1, got %v", got)
	}
	if got := testutil.ToFloat64(c.lifecycle.state.WithLabelValues("configuring")); got != 0 {
		t.Errorf("expected configuring=0, got %v", got)
	}
}

func TestCollector_Counters(t *testing.T) {
	c := testCollector(t)

	c.SetConfigVersion(7)
	c.RecordSignal("SIGHUP")
	c.RecordAction("reload")
	c.RecordHookTimeout("flush")
	c.RecordDroppedError()

	if got := testutil.ToFloat64(c.lifecycle.configVersion); got != 7 {
		t.Errorf("expected version 7, got %v", got)
	}
	if got := testutil.ToFloat64(c.lifecycle.signalsTotal.WithLabelValues("SIGHUP")); got != 1 {
		t.Errorf("expected 1 SIGHUP, got %v", got)
	}
	if got := testutil.ToFloat64(c.lifecycle.hookTimeoutsTotal.WithLabelValues("flush")); got != 1 {
		t.Errorf("expected 1 hook timeout, got %v", got)
	}
	if got := testutil.ToFloat64(c.lifecycle.droppedErrorsTotal); got != 1 {
		t.Errorf("expected 1 dropped error, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Enabled: false}, prometheus.NewRegistry())
	c.RecordAction("reload")

	if got := testutil.ToFloat64(c.lifecycle.actionsTotal.WithLabelValues("reload")); got != 0 {
		t.Errorf("expected disabled collector to record nothing, got %v", got)
	}
	if c.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", c.config.Namespace)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.RecordCycle("reload", "committed", time.Second)
	c.SetState("running")
	c.RecordSignal("SIGTERM")
	if c.Registry() != nil {
		t.Error("expected nil registry from nil collector")
	}
}

func TestCollector_Handler(t *testing.T) {
	c := testCollector(t)
	c.RecordAction("reload")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_lifecycle_actions_total") {
		t.Errorf("expected actions metric in output, got:\n%s", rec.Body.String())
	}
}

func TestCollector_HandlerDisabled(t *testing.T) {
	c := NewCollector(&config.MetricsConfig{Namespace: "test"}, prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for disabled collector, got %d", rec.Code)
	}
}
