package http

import (
	"context"
	"math"
	"net/http"
	"time"
)

const healthVersion = "1.0.0"

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names a dependency, e.g. "database" or "revocation_store".
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

// ServiceChecks returns the checks the API server runs. The revocation
// store is reported under one name whichever backend was selected.
func ServiceChecks(db, revocations Pinger) []HealthCheck {
	return []HealthCheck{
		{Name: "database", Pinger: db},
		{Name: "revocation_store", Pinger: revocations},
	}
}

type checkResult struct {
	name    string
	healthy bool
	latency time.Duration
}

type HealthHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second}
}

func (h *HealthHandler) run(ctx context.Context) ([]checkResult, bool) {
	results := make([]checkResult, 0, len(h.checks))
	allHealthy := true
	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(ctx, h.timeout)
		start := time.Now()
		err := c.Pinger.Ping(ctx)
		cancel()

		res := checkResult{name: c.Name, healthy: err == nil, latency: time.Since(start)}
		if err != nil {
			allHealthy = false
		}
		results = append(results, res)
	}
	return results, allHealthy
}

func (h *HealthHandler) summary(ctx context.Context, detailed bool) map[string]interface{} {
	results, ok := h.run(ctx)
	resp := map[string]interface{}{
		"status":  overall(ok),
		"version": healthVersion,
	}
	for _, res := range results {
		resp[res.name] = status(res.healthy)
		if detailed {
			var latency interface{}
			if res.healthy {
				latency = math.Round(float64(res.latency.Microseconds())/10) / 100
			}
			resp[res.name+"_latency_ms"] = latency
		}
	}
	return resp
}

// Health reports every dependency; "degraded" still answers 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.summary(r.Context(), false))
}

func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.summary(r.Context(), true))
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.run(r.Context()); !ok {
		writeError(w, http.StatusServiceUnavailable, "Service not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

func overall(ok bool) string {
	if ok {
		return "healthy"
	}
	return "degraded"
}

func status(ok bool) string {
	if ok {
		return "healthy"
	}
	return "unhealthy"
}
