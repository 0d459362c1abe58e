package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"challenge-league/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Database  string    `json:"database"`
	Redis     string    `json:"redis"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.container.Logger

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "challenge-league",
		Database:  "up",
		Redis:     "up",
	}

	if err := h.container.DB.Health(ctx); err != nil {
		logger.WithError(err).Warn("Database health check failed")
		response.Status = "degraded"
		response.Database = "down"
	}

	if h.container.RedisClient == nil {
		response.Redis = "disabled"
	} else if err := h.container.RedisClient.Health(ctx); err != nil {
		logger.WithError(err).Warn("Redis health check failed")
		response.Status = "degraded"
		response.Redis = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode health check response")
	}
}
