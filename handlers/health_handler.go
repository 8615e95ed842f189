package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/pizza-app/auth-service/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// RedisPinger is the part of the Redis client used by readiness checks
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db     *sql.DB
	redis  RedisPinger
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil redis skips the Redis check.
func NewHealthHandler(db *sql.DB, redis RedisPinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, "service is running", response)
}

// HandleReadiness handles GET /readyz
// Readiness check - validates that all dependencies are available
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	// Redis only backs rate limiting, which fails open, so it never fails readiness
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("redis health check failed", zap.Error(err))
			checks["redis"] = "degraded"
		} else {
			checks["redis"] = "healthy"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteSuccess(w, httpStatus, "readiness", response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil // No database configured
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}

	return nil
}
