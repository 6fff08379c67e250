// Package http provides HTTP handlers and middleware for the recommendation API.
// It includes the recommendation endpoints, health checks, metrics collection,
// authentication, and various middleware components.
package http

import (
	"net/http"
	"time"

	"basket-recs/internal/handler/http/respond"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string `json:"status"`            // "healthy" or "unhealthy"
	Message string `json:"message,omitempty"` // Optional status message
}

// SnapshotChecker reports whether a trained model snapshot is available on
// disk. The readiness probe gates traffic on it: without a snapshot every
// recommendation request would fail.
type SnapshotChecker interface {
	Exists() bool
}

// HealthHandler handles health check endpoint requests.
// It verifies model snapshot availability and returns detailed health status.
type HealthHandler struct {
	Snapshots SnapshotChecker
	Version   string
}

// ServeHTTP handles GET /health requests with a detailed per-check breakdown.
func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := map[string]CheckStatus{}
	overall := "healthy"

	if h.Snapshots != nil && h.Snapshots.Exists() {
		checks["snapshot"] = CheckStatus{Status: "healthy"}
	} else {
		checks["snapshot"] = CheckStatus{
			Status:  "unhealthy",
			Message: "no model snapshot available; run the builder first",
		}
		overall = "unhealthy"
	}

	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}

	respond.JSON(w, code, HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

// ReadyHandler handles GET /health/ready requests. The service is ready
// once a model snapshot exists; until then load balancers should keep
// traffic away.
type ReadyHandler struct {
	Snapshots SnapshotChecker
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Snapshots == nil || !h.Snapshots.Exists() {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LiveHandler handles GET /health/live requests. Liveness only means the
// process is serving; it never inspects the snapshot so a missing model
// does not trigger restarts.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
