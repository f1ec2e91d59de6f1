package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
)

type JobHandler struct {
	store  repository.Store
	logger *slog.Logger
}

func NewJobHandler(store repository.Store, logger *slog.Logger) *JobHandler {
	return &JobHandler{store: store, logger: logger.With("component", "job_handler")}
}

// GET /jobs?group=<name>
func (h *JobHandler) List(c *gin.Context) {
	var m repository.Matcher
	if group := c.Query("group"); group != "" {
		m = repository.GroupEquals(group)
	}

	keys, err := h.store.GetJobKeys(c.Request.Context(), m)
	if err != nil {
		h.logger.Error("list job keys", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": keys})
}

// GET /jobs/:group/:name
func (h *JobHandler) Get(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}

	job, err := h.store.RetrieveJob(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
			return
		}
		h.logger.Error("retrieve job", "job", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, job)
}

// DELETE /jobs/:group/:name
func (h *JobHandler) Delete(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}

	found, err := h.store.RemoveJob(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("remove job", "job", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /jobs/:group/:name/pause
func (h *JobHandler) Pause(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}
	if err := h.store.PauseJob(c.Request.Context(), key); err != nil {
		h.logger.Error("pause job", "job", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /jobs/:group/:name/resume
func (h *JobHandler) Resume(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}
	if err := h.store.ResumeJob(c.Request.Context(), key); err != nil {
		h.logger.Error("resume job", "job", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}
