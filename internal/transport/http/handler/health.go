package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quartzgo/quartz/internal/health"
)

type HealthHandler struct {
	checker *health.Checker
}

func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// GET /healthz/live
func (h *HealthHandler) Liveness(c *gin.Context) {
	if h.checker == nil {
		c.JSON(http.StatusOK, health.HealthResult{Status: "up"})
		return
	}
	c.JSON(http.StatusOK, h.checker.Liveness(c.Request.Context()))
}

// GET /healthz/ready
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.checker == nil {
		// No external dependency to check (in-memory job store).
		c.JSON(http.StatusOK, health.HealthResult{Status: "up"})
		return
	}
	result := h.checker.Readiness(c.Request.Context())
	status := http.StatusOK
	if result.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
