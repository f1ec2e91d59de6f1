package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quartzgo/quartz/internal/domain"
	"github.com/quartzgo/quartz/internal/repository"
)

type TriggerHandler struct {
	store  repository.Store
	logger *slog.Logger
}

func NewTriggerHandler(store repository.Store, logger *slog.Logger) *TriggerHandler {
	return &TriggerHandler{store: store, logger: logger.With("component", "trigger_handler")}
}

// GET /triggers?group=<name>
func (h *TriggerHandler) List(c *gin.Context) {
	var m repository.Matcher
	if group := c.Query("group"); group != "" {
		m = repository.GroupEquals(group)
	}

	keys, err := h.store.GetTriggerKeys(c.Request.Context(), m)
	if err != nil {
		h.logger.Error("list trigger keys", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggers": keys})
}

// GET /triggers/:group/:name
func (h *TriggerHandler) Get(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}

	tr, err := h.store.RetrieveTrigger(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrTriggerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errTriggerNotFound})
			return
		}
		h.logger.Error("retrieve trigger", "trigger", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, tr)
}

// DELETE /triggers/:group/:name
func (h *TriggerHandler) Delete(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}

	found, err := h.store.RemoveTrigger(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("remove trigger", "trigger", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errTriggerNotFound})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /triggers/:group/:name/pause
func (h *TriggerHandler) Pause(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}
	if err := h.store.PauseTrigger(c.Request.Context(), key); err != nil {
		h.logger.Error("pause trigger", "trigger", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /triggers/:group/:name/resume
func (h *TriggerHandler) Resume(c *gin.Context) {
	key := domain.Key{Name: c.Param("name"), Group: c.Param("group")}
	if err := h.store.ResumeTrigger(c.Request.Context(), key); err != nil {
		h.logger.Error("resume trigger", "trigger", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.Status(http.StatusNoContent)
}
