package handlers

import (
	"context"
	"net/http"
	"time"
)

// DBPinger checks database connectivity
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger checks Redis connectivity
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// QueueChecker checks message queue connectivity
type QueueChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecker reports the health of the server's dependencies
type HealthChecker struct {
	db    DBPinger
	redis RedisPinger
	queue QueueChecker
}

// NewHealthCheckerWithDeps creates a health checker. Any dependency may be
// nil; nil dependencies are reported as skipped rather than failing.
func NewHealthCheckerWithDeps(db DBPinger, redis RedisPinger, queue QueueChecker) *HealthChecker {
	return &HealthChecker{db: db, redis: redis, queue: queue}
}

// HealthCheck reports liveness. With mode=extended it also checks each
// dependency and returns 503 when any configured one is unreachable.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("mode") != "extended" {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "unhealthy"
			healthy = false
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "skipped"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = "unhealthy"
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "skipped"
	}

	if h.queue != nil {
		if err := h.queue.HealthCheck(ctx); err != nil {
			checks["queue"] = "unhealthy"
			healthy = false
		} else {
			checks["queue"] = "healthy"
		}
	} else {
		checks["queue"] = "skipped"
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]any{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
