package api

import (
	"context"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/services/database"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	statusHealthy    = "healthy"
	statusUnhealthy  = "unhealthy"
	statusDisabled   = "disabled"
	healthCheckLimit = 2 * time.Second
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db          *database.DB
	redisClient *redis.Client
}

// NewHealthHandler creates a new health check handler. Both dependencies are optional.
func NewHealthHandler(db *database.DB, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// HealthCheck returns the health status of the service and its dependencies
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	redisStatus := h.checkRedis(c.UserContext())
	databaseStatus := h.checkDatabase()

	overallStatus := statusHealthy
	statusCode := fiber.StatusOK

	if redisStatus == statusUnhealthy || databaseStatus == statusUnhealthy {
		overallStatus = "degraded"
		statusCode = fiber.StatusServiceUnavailable
	}

	response := fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": fiber.Map{
			"redis":    redisStatus,
			"database": databaseStatus,
		},
	}

	return c.Status(statusCode).JSON(response)
}

// checkRedis verifies Redis connectivity
func (h *HealthHandler) checkRedis(parent context.Context) string {
	if h.redisClient == nil {
		return statusDisabled
	}

	ctx, cancel := context.WithTimeout(parent, healthCheckLimit)
	defer cancel()

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		return statusUnhealthy
	}

	return statusHealthy
}

// checkDatabase verifies the generation log database is reachable
func (h *HealthHandler) checkDatabase() string {
	if h.db == nil {
		return statusDisabled
	}

	if err := h.db.Ping(); err != nil {
		return statusUnhealthy
	}

	return statusHealthy
}
