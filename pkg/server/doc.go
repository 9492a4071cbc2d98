// Package server provides the daemon's admin HTTP listener.
//
// # Endpoints
//
//   - GET /metrics: Prometheus metrics
//   - GET /health: liveness, 503 once the daemon has terminated
//   - GET /ready: readiness, 200 only while Running or reloading
//   - GET /version: build information
//   - GET /status: lifecycle state, configuration version and last error
//   - GET /journal?limit=N: recent configuration cycles, newest first
//   - POST /reload: queue a reload, rate limited by admin.reload_rate and
//     admin.reload_burst (429 with Retry-After when exceeded)
//
// A reload posted here goes through the same coalescing queue as SIGHUP,
// so hammering the endpoint never runs overlapping reloads.
//
// # Usage
//
//	admin := server.New(func(c AppConfig) config.AdminConfig { return c.Daemon.Admin },
//	    server.Options{Metrics: collector, Version: health.NewVersionInfo(version, commit, date)})
//	if err := ctl.With(admin); err != nil {
//	    return err
//	}
//
// The listener is bound while the initial configuration validates, so a
// taken port fails startup. Changing admin.enabled or admin.listen_address
// takes effect on restart; rate limits follow every reload.
package server
