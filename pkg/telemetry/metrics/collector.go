package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/keeper/pkg/config"
)

// Collector owns the Prometheus registry of a daemon and records lifecycle
// metrics. A nil *Collector is valid and records nothing, so callers never
// need to check whether metrics are enabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	lifecycle *LifecycleMetrics

	mu        sync.Mutex
	lastState string
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil, a fresh registry carrying the Go runtime and process
// collectors is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "keeper"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:    cfg,
		registry:  registry,
		lifecycle: NewLifecycleMetrics(cfg, registry),
	}
}

// Registry returns the registry metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordCycle records a finished configuration or shutdown cycle.
//
// Parameters:
//   - kind: "startup", "reload" or "shutdown"
//   - outcome: "committed", "rejected", "clean", "degraded" or "failed"
//   - duration: wall time of the cycle
func (c *Collector) RecordCycle(kind, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.lifecycle.cyclesTotal.WithLabelValues(kind, outcome).Inc()
	c.lifecycle.cycleDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetConfigVersion records the version of the committed snapshot.
func (c *Collector) SetConfigVersion(version uint64) {
	if !c.enabled() {
		return
	}
	c.lifecycle.configVersion.Set(float64(version))
	c.lifecycle.lastCommit.SetToCurrentTime()
}

// SetState marks state as the current lifecycle state.
func (c *Collector) SetState(state string) {
	if !c.enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastState != "" && c.lastState != state {
		c.lifecycle.state.WithLabelValues(c.lastState).Set(0)
	}
	c.lifecycle.state.WithLabelValues(state).Set(1)
	c.lastState = state
}

// RecordSignal counts a received OS signal.
func (c *Collector) RecordSignal(name string) {
	if !c.enabled() {
		return
	}
	c.lifecycle.signalsTotal.WithLabelValues(name).Inc()
}

// RecordAction counts an action processed by the controller.
func (c *Collector) RecordAction(kind string) {
	if !c.enabled() {
		return
	}
	c.lifecycle.actionsTotal.WithLabelValues(kind).Inc()
}

// RecordHookTimeout counts a terminate hook abandoned after its budget.
func (c *Collector) RecordHookTimeout(hook string) {
	if !c.enabled() {
		return
	}
	c.lifecycle.hookTimeoutsTotal.WithLabelValues(hook).Inc()
}

// RecordDroppedError counts an error that could not be delivered on the
// controller's error channel.
func (c *Collector) RecordDroppedError() {
	if !c.enabled() {
		return
	}
	c.lifecycle.droppedErrorsTotal.Inc()
}
