package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/scheduler"
)

type SchedulerHandler struct {
	sched  *scheduler.Scheduler
	logger *slog.Logger
}

func NewSchedulerHandler(sched *scheduler.Scheduler, logger *slog.Logger) *SchedulerHandler {
	return &SchedulerHandler{sched: sched, logger: logger.With("component", "scheduler_handler")}
}

// GET /scheduler
func (h *SchedulerHandler) Metadata(c *gin.Context) {
	c.JSON(http.StatusOK, h.sched.Metadata())
}

// POST /scheduler/standby
func (h *SchedulerHandler) Standby(c *gin.Context) {
	if err := h.sched.Standby(c.Request.Context()); err != nil {
		h.logger.Error("standby", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /scheduler/resume
func (h *SchedulerHandler) Resume(c *gin.Context) {
	if err := h.sched.Resume(c.Request.Context()); err != nil {
		h.logger.Error("resume", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /scheduler/jobs/:group/:name/interrupt
func (h *SchedulerHandler) Interrupt(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}
	if err := h.sched.Interrupt(key); err != nil {
		if errors.Is(err, scheduler.ErrNotInterruptable) {
			c.JSON(http.StatusConflict, gin.H{"error": "job is not currently running or does not support interruption"})
			return
		}
		h.logger.Error("interrupt", "job", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}
