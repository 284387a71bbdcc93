// Package http holds the read API's shared handlers and middleware: health
// probes, request logging, panic recovery, timeouts, input limits and
// Prometheus request metrics.
package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"newscrawl/internal/domain/entity"
	"newscrawl/internal/handler/http/respond"
	"newscrawl/internal/observability/logging"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// RunLister reads the run log. repository.RunLogRepository satisfies it.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]entity.RunLogEntry, error)
}

// HealthHandler reports database reachability and, when Runs is set, how
// long ago the last crawl cycle started. A stale cycle is reported as
// degraded; only a failed database check makes the API unhealthy.
type HealthHandler struct {
	DB      *sql.DB
	Runs    RunLister
	Version string

	// StaleAfter marks the crawl check degraded when the newest cycle is
	// older. Zero disables the age check.
	StaleAfter time.Duration

	now func() time.Time
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := time.Now
	if h.now != nil {
		now = h.now
	}

	checks := map[string]CheckStatus{"database": h.checkDatabase(ctx)}
	if h.Runs != nil {
		checks["crawl"] = h.checkCrawl(ctx, now())
	}

	status, code := statusHealthy, http.StatusOK
	if checks["database"].Status == statusUnhealthy {
		status, code = statusUnhealthy, http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if h.DB == nil {
		return CheckStatus{Status: statusUnhealthy, Message: "not configured"}
	}
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: logging.SanitizeError(err)}
	}

	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80.0 {
			return CheckStatus{
				Status:  statusDegraded,
				Message: "connection pool utilization above 80%",
				Details: details,
			}
		}
	}

	return CheckStatus{Status: statusHealthy, Details: details}
}

func (h *HealthHandler) checkCrawl(ctx context.Context, now time.Time) CheckStatus {
	entries, err := h.Runs.ListRecent(ctx, 1)
	if err != nil {
		return CheckStatus{Status: statusDegraded, Message: "run log unavailable"}
	}
	if len(entries) == 0 {
		return CheckStatus{Status: statusDegraded, Message: "no crawl cycle recorded yet"}
	}

	last := entries[0]
	age := now.Sub(last.CycleStart)
	details := map[string]any{
		"last_cycle_id":    last.CycleID,
		"last_cycle_start": last.CycleStart.UTC().Format(time.RFC3339),
		"age_seconds":      int64(age.Seconds()),
	}
	if h.StaleAfter > 0 && age > h.StaleAfter {
		return CheckStatus{Status: statusDegraded, Message: "last crawl cycle is stale", Details: details}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// ReadyHandler answers 200 when the database responds to a ping.
type ReadyHandler struct {
	DB *sql.DB
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database not configured"})
		return
	}
	if err := h.DB.PingContext(ctx); err != nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database not ready"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LiveHandler always answers 200.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
