// Package metrics provides Prometheus metrics for the daemon lifecycle.
//
// # Metrics
//
//   - Cycle counts and durations by kind (startup, reload, shutdown) and outcome
//   - The live configuration version and the time of the last commit
//   - The current lifecycle state
//   - Received signals, processed actions and abandoned terminate hooks
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Daemon.Metrics, nil)
//	ctl := lifecycle.New[Config](loader, lifecycle.Options{Metrics: collector})
//	mux.Handle("/metrics", collector.Handler())
//
// A nil *Collector is a valid no-op.
package metrics
