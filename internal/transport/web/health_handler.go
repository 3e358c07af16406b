package web

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	Status    string            `json:"status"`              // "ok" or "error"
	Timestamp time.Time         `json:"timestamp"`           // Current server time
	Checks    map[string]string `json:"checks,omitempty"`    // Individual component health
	Version   string            `json:"version,omitempty"`   // Application version (optional)
	Uptime    string            `json:"uptime,omitempty"`    // Server uptime (optional)
}

var startTime = time.Now()

// HealthCheck handles the /health endpoint.
// This is a lightweight endpoint that always returns 200 OK if the service is running.
// It's primarily used by load balancers and monitoring systems to check if the service is alive.
//
// Response includes:
// - status: Always "ok" if this handler executes
// - timestamp: Current server time
// - uptime: How long the service has been running
//
// This endpoint does NOT check dependencies (database, external services).
// Use /readiness for dependency checks.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(startTime)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    formatUptime(uptime),
	}

	jsonResponse(w, response)
}

// ReadinessCheck handles the /readiness endpoint.
// This endpoint checks if the service is ready to accept traffic by verifying
// that all critical dependencies (database, external services) are available.
//
// Use cases:
// - Kubernetes readiness probes
// - Load balancer health checks
// - Deployment health validation
//
// Response includes:
// - status: "ok" if all checks pass, "error" if any check fails
// - checks: Map of component statuses (e.g., {"database": "ok"})
// - timestamp: Current server time
//
// Returns:
// - 200 OK if all dependencies are healthy
// - 503 Service Unavailable if any dependency is unhealthy
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	allHealthy := true

	// Check database connectivity
	dbStatus := h.checkDatabase(r.Context())
	checks["database"] = dbStatus
	if dbStatus != "ok" {
		allHealthy = false
	}

	status := "ok"
	httpStatus := http.StatusOK

	if !allHealthy {
		status = "error"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}

	writeJSON(w, httpStatus, response)
}

// checkDatabase verifies database connectivity by executing a simple ping.
// Returns "ok" if database is reachable, "error" otherwise.
func (h *Handler) checkDatabase(ctx context.Context) string {
	if h.container.DB == nil {
		return "error"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.container.DB.PingContext(ctx); err != nil {
		return "error"
	}

	// Additional check: Verify we can query the database
	var result int
	err := h.container.DB.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "ok" // No rows is fine for SELECT 1
		}
		return "error"
	}

	return "ok"
}

// formatUptime converts a duration into a human-readable uptime string.
// Examples:
//   - 2h 15m 30s
//   - 1d 5h 23m
//   - 45s
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return formatDurationString(days, "d", hours, "h", minutes, "m")
	}
	if hours > 0 {
		return formatDurationString(hours, "h", minutes, "m", seconds, "s")
	}
	if minutes > 0 {
		return formatDurationString(minutes, "m", seconds, "s", 0, "")
	}
	return formatDurationString(seconds, "s", 0, "", 0, "")
}

// formatDurationString joins the non-zero units, e.g. "2h 15m".
func formatDurationString(v1 int, u1 string, v2 int, u2 string, v3 int, u3 string) string {
	parts := make([]string, 0, 3)
	for _, p := range []struct {
		v int
		u string
	}{{v1, u1}, {v2, u2}, {v3, u3}} {
		if p.v > 0 {
			parts = append(parts, strconv.Itoa(p.v)+p.u)
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}
