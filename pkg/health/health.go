// Package health exposes liveness and readiness endpoints backed by
// pluggable dependency probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Checker probes a single dependency and reports an error when it is unusable.
type Checker func(ctx context.Context) error

// Status represents the health status of a component.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// readinessTimeout bounds how long one readiness request may spend probing.
const readinessTimeout = 5 * time.Second

// Response is the JSON body returned by both health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of probing one dependency.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type probe struct {
	check    Checker
	critical bool
}

// Handler provides HTTP health check endpoints.
type Handler struct {
	mu     sync.RWMutex
	probes map[string]probe
}

// NewHandler creates a new health check handler.
func NewHandler() *Handler {
	return &Handler{probes: make(map[string]probe)}
}

// Register adds a named health checker, treated as critical.
// Re-registering a name replaces the previous checker.
func (h *Handler) Register(name string, checker Checker) {
	h.RegisterCritical(name, checker)
}

// RegisterCritical adds a checker whose failure makes the service not ready.
func (h *Handler) RegisterCritical(name string, checker Checker) {
	h.register(name, checker, true)
}

// RegisterNonCritical adds a checker whose failure only degrades the
// reported status; readiness still answers 200.
func (h *Handler) RegisterNonCritical(name string, checker Checker) {
	h.register(name, checker, false)
}

func (h *Handler) register(name string, checker Checker, critical bool) {
	h.mu.Lock()
	h.probes[name] = probe{check: checker, critical: critical}
	h.mu.Unlock()
}

// LivenessHandler reports that the process is running. It never probes
// dependencies and always answers 200.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler probes every registered dependency. A failing critical
// probe turns the service down (503); failing non-critical probes only
// degrade the reported status.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		h.mu.RLock()
		snapshot := make(map[string]probe, len(h.probes))
		for name, p := range h.probes {
			snapshot[name] = p
		}
		h.mu.RUnlock()

		overall := StatusUp
		results := make(map[string]CheckResult, len(snapshot))
		for name, p := range snapshot {
			result := CheckResult{Status: StatusUp, Critical: p.critical}
			if err := p.check(ctx); err != nil {
				result.Status = StatusDown
				result.Error = err.Error()
				if p.critical {
					overall = StatusDown
				} else if overall == StatusUp {
					overall = StatusDegraded
				}
			}
			results[name] = result
		}

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{
			Status:    overall,
			Timestamp: time.Now().UTC(),
			Checks:    results,
		})
	}
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
