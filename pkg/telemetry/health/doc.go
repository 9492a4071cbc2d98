// Package health provides the daemon's liveness, readiness and version
// endpoints.
//
// Liveness reports whether the daemon has not yet terminated. Readiness
// runs every registered check concurrently, each with its own timeout;
// Attach registers the lifecycle checks so the daemon reports ready only
// after its initial configuration is committed and until shutdown begins.
//
//	checker := health.New(2 * time.Second)
//	health.Attach(checker, ctl)
//	health.Register(mux, checker, health.NewVersionInfo(version, commit, date))
package health
