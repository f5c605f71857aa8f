package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/usecase/dto"
)

// HealthChecker - зависимость, умеющая проверить своё состояние
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	checks  map[string]HealthChecker
	timeout time.Duration
	logger  *zap.Logger
}

func NewHealthHandler(checks map[string]HealthChecker, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 2 * time.Second,
		logger:  logger.OrNop(log),
	}
}

// Health godoc
// @Summary Состояние сервиса
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   "healthy",
		Services: make(map[string]string, len(h.checks)),
	}

	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("service", name), zap.Error(err))
			resp.Services[name] = "unhealthy"
			resp.Status = "degraded"
			continue
		}
		resp.Services[name] = "healthy"
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
