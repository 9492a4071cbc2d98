package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/keeper/pkg/config"
)

// LifecycleMetrics tracks the daemon lifecycle.
//
// Metrics:
//   - keeper_lifecycle_cycles_total: Finished cycles by kind and outcome
//   - keeper_lifecycle_cycle_duration_seconds: Cycle duration by kind
//   - keeper_lifecycle_config_version: Version of the live snapshot
//   - keeper_lifecycle_last_commit_timestamp_seconds: Time of the last commit
//   - keeper_lifecycle_state: 1 for the current state, 0 otherwise
//   - keeper_lifecycle_signals_total: Received signals by name
//   - keeper_lifecycle_actions_total: Processed actions by kind
//   - keeper_lifecycle_hook_timeouts_total: Abandoned terminate hooks
//   - keeper_lifecycle_dropped_errors_total: Errors not delivered to the error channel
type LifecycleMetrics struct {
	cyclesTotal        *prometheus.CounterVec
	cycleDuration      *prometheus.HistogramVec
	configVersion      prometheus.Gauge
	lastCommit         prometheus.Gauge
	state              *prometheus.GaugeVec
	signalsTotal       *prometheus.CounterVec
	actionsTotal       *prometheus.CounterVec
	hookTimeoutsTotal  *prometheus.CounterVec
	droppedErrorsTotal prometheus.Counter
}

const subsystem = "lifecycle"

// NewLifecycleMetrics creates and registers lifecycle metrics with registry.
func NewLifecycleMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LifecycleMetrics {
	lm := &LifecycleMetrics{
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "cycles_total",
				Help:      "Total number of finished lifecycle cycles",
			},
			[]string{"kind", "outcome"},
		),

		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of lifecycle cycles in seconds",
				// Loads are usually milliseconds; shutdowns may take the full grace period
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
			},
			[]string{"kind"},
		),

		configVersion: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "config_version",
				Help:      "Version of the live configuration snapshot",
			},
		),

		lastCommit: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "last_commit_timestamp_seconds",
				Help:      "Unix time of the last configuration commit",
			},
		),

		state: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "state",
				Help:      "Current lifecycle state (1 for the current state)",
			},
			[]string{"state"},
		),

		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "signals_total",
				Help:      "Total number of received OS signals",
			},
			[]string{"signal"},
		),

		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "actions_total",
				Help:      "Total number of processed lifecycle actions",
			},
			[]string{"kind"},
		),

		hookTimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "hook_timeouts_total",
				Help:      "Total number of terminate hooks abandoned after their budget",
			},
			[]string{"hook"},
		),

		droppedErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "dropped_errors_total",
				Help:      "Total number of errors dropped because the error channel was full",
			},
		),
	}

	registry.MustRegister(
		lm.cyclesTotal,
		lm.cycleDuration,
		lm.configVersion,
		lm.lastCommit,
		lm.state,
		lm.signalsTotal,
		lm.actionsTotal,
		lm.hookTimeoutsTotal,
		lm.droppedErrorsTotal,
	)

	return lm
}
