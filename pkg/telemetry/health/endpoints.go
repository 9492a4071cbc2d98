package health

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// VersionInfo contains build and version information.
type VersionInfo struct {
	// Version is the semantic version (e.g., "1.0.0")
	Version string `json:"version"`

	// Commit is the git commit hash
	Commit string `json:"commit"`

	// BuildTime is when the binary was built
	BuildTime string `json:"build_time"`

	// GoVersion is the Go version used to build
	GoVersion string `json:"go_version"`
}

// NewVersionInfo fills GoVersion from the running binary.
func NewVersionInfo(version, commit, buildTime string) VersionInfo {
	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// LivenessHandler serves the liveness probe. It answers 503 once the
// daemon has terminated.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r) {
			return
		}
		status := c.CheckLiveness(r.Context())
		code := http.StatusOK
		if status.Status != StatusOK {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// ReadinessHandler serves the readiness probe.
//
// Returns:
//   - 200 OK: every check passed
//   - 503 Service Unavailable: at least one check failed
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r) {
			return
		}
		status := c.CheckReadiness(r.Context())
		code := http.StatusOK
		if status.Status != StatusReady {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler serves build information.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r) {
			return
		}
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Register adds /health, /ready and /version to mux.
func Register(mux *http.ServeMux, checker *Checker, info VersionInfo) {
	mux.HandleFunc("/health", checker.LivenessHandler())
	mux.HandleFunc("/ready", checker.ReadinessHandler())
	mux.HandleFunc("/version", VersionHandler(info))
}

func readOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(v)
	}
}
