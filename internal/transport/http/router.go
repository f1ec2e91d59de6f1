package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/quartzgo/quartz/internal/transport/http/handler"
	"github.com/quartzgo/quartz/internal/transport/http/middleware"
)

// NewRouter builds the admin surface: read/pause/resume/delete over jobs
// and triggers, scheduler lifecycle control, and health/liveness checks.
// It carries no authentication — it's meant to sit behind a private
// network boundary, the same posture Quartz's JMX/REST management layer
// assumes.
func NewRouter(logger *slog.Logger, jobs *handler.JobHandler, triggers *handler.TriggerHandler, sched *handler.SchedulerHandler, health *handler.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	r.GET("/healthz/live", health.Liveness)
	r.GET("/healthz/ready", health.Readiness)

	r.GET("/scheduler", sched.Metadata)
	r.POST("/scheduler/standby", sched.Standby)
	r.POST("/scheduler/resume", sched.Resume)
	r.POST("/scheduler/jobs/:group/:name/interrupt", sched.Interrupt)

	jobGroup := r.Group("/jobs")
	jobGroup.GET("", jobs.List)
	jobGroup.GET("/:group/:name", jobs.Get)
	jobGroup.DELETE("/:group/:name", jobs.Delete)
	jobGroup.POST("/:group/:name/pause", jobs.Pause)
	jobGroup.POST("/:group/:name/resume", jobs.Resume)

	triggerGroup := r.Group("/triggers")
	triggerGroup.GET("", triggers.List)
	triggerGroup.GET("/:group/:name", triggers.Get)
	triggerGroup.DELETE("/:group/:name", triggers.Delete)
	triggerGroup.POST("/:group/:name/pause", triggers.Pause)
	triggerGroup.POST("/:group/:name/resume", triggers.Resume)

	return r
}
