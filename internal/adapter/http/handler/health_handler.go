package handler

import (
	"context"
	"net/http"
	"time"
)

// ReadinessCheck probes one dependency.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks  []ReadinessCheck
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 5 * time.Second,
	}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if every dependency answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := map[string]string{"status": "ready"}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, check.Name+" unhealthy", err.Error())
			return
		}
		resp[check.Name] = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
