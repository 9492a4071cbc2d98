package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Status values reported by checks and probes.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusNotReady  = "not_ready"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc is a function that performs a health check for a component.
// It returns nil if the component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Status is "ok" or "unhealthy"
	Status string `json:"status"`

	// Message describes the problem for unhealthy checks
	Message string `json:"message,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// HealthStatus represents the overall health status of the daemon.
type HealthStatus struct {
	// Status is "ok", "ready", "not_ready" or "unhealthy"
	Status string `json:"status"`

	// State is the lifecycle state, when known
	State string `json:"state,omitempty"`

	// Checks contains the status of individual components (for readiness)
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the health check was performed
	Timestamp time.Time `json:"timestamp"`
}

// StateFunc reports the lifecycle state and whether the process is alive.
type StateFunc func() (state string, alive bool)

// Checker runs readiness checks and reports liveness.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	state  StateFunc

	// Timeout for individual checks
	checkTimeout time.Duration
}

// ErrCheckTimeout is reported when a health check times out.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a new health checker with the specified check timeout.
// If timeout is 0, defaults to 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// SetState installs the liveness source.
func (c *Checker) SetState(fn StateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn
}

// RegisterCheck registers a readiness check for a named component,
// replacing any check with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a health check for a named component.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// ListChecks returns the sorted names of all registered checks.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Checker) currentState() (string, bool) {
	c.mu.RLock()
	fn := c.state
	c.mu.RUnlock()
	if fn == nil {
		return "", true
	}
	return fn()
}

// CheckLiveness reports whether the process is alive. It runs no checks.
func (c *Checker) CheckLiveness(context.Context) HealthStatus {
	state, alive := c.currentState()
	status := StatusOK
	if !alive {
		status = StatusUnhealthy
	}
	return HealthStatus{Status: status, State: state, Timestamp: time.Now()}
}

// CheckReadiness runs every registered check concurrently. The daemon is
// ready only when every check passes.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Go(func() {
			result := c.runCheck(ctx, check)
			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		})
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			status = StatusNotReady
		}
	}

	state, _ := c.currentState()
	return HealthStatus{
		Status:    status,
		State:     state,
		Checks:    results,
		Timestamp: time.Now(),
	}
}

// runCheck executes a single health check with timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), Duration: time.Since(start)}
		}
		return CheckResult{Status: StatusOK, Duration: time.Since(start)}
	case <-checkCtx.Done():
		return CheckResult{Status: StatusUnhealthy, Message: ErrCheckTimeout.Error(), Duration: time.Since(start)}
	}
}
