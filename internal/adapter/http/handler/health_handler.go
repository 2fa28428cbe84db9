package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker checks one optional dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checkers []HealthChecker
}

// NewHealthHandler creates a new HealthHandler. Without checkers the service
// is always ready.
func NewHealthHandler(checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	for _, checker := range h.checkers {
		if err := checker.Check(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, checker.Name()+" unhealthy", err.Error())
			return
		}
		status[checker.Name()] = "ok"
	}

	writeJSON(w, http.StatusOK, status)
}
