package rest

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/frahmantamala/power-data-portal/internal"
	"github.com/frahmantamala/power-data-portal/internal/transport"
	"github.com/redis/go-redis/v9"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

// AuditCounter reports history appends that were lost.
type AuditCounter interface {
	FailureCount() int64
}

type HealthHandler struct {
	*transport.BaseHandler
	db    *sql.DB
	redis *redis.Client
	audit AuditCounter
}

// NewHealthHandler checks db and, when set, redis. audit may be nil.
func NewHealthHandler(base *transport.BaseHandler, db *sql.DB, rdb *redis.Client, audit AuditCounter) *HealthHandler {
	return &HealthHandler{BaseHandler: base, db: db, redis: rdb, audit: audit}
}

// Ping handles GET /ping
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Check handles GET /health. Only the database decides the status code;
// redis and audit problems report as degraded.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := internal.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]CheckEntry{
		"postgres": timed(func() error { return h.db.PingContext(ctx) }, HealthUnhealthy),
	}
	if h.redis != nil {
		components["redis"] = timed(func() error { return h.redis.Ping(ctx).Err() }, HealthDegraded)
	}
	if h.audit != nil {
		entry := CheckEntry{Status: HealthHealthy, CheckedAt: time.Now()}
		failures := h.audit.FailureCount()
		if failures > 0 {
			entry.Status = HealthDegraded
			entry.Message = "some history entries could not be written"
		}
		entry.Details = map[string]any{"append_failures": failures}
		components["history"] = entry
	}

	overall := HealthHealthy
	for _, c := range components {
		if c.Status == HealthUnhealthy {
			overall = HealthUnhealthy
			break
		}
		if c.Status == HealthDegraded {
			overall = HealthDegraded
		}
	}

	statusCode := http.StatusOK
	if overall == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	h.WriteJSON(w, statusCode, HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now(),
		Components: components,
	})
}

func timed(check func() error, onFailure HealthStatus) CheckEntry {
	start := time.Now()
	err := check()
	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = onFailure
		entry.Message = err.Error()
	}
	return entry
}
