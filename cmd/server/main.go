// Command server runs a management-only Quartz-Go node: it joins the same
// clustered store as the cmd/scheduler instances but keeps its own
// scheduler in STANDBY (it never acquires or fires triggers), exposing only
// the admin HTTP surface and metrics. This mirrors a real deployment
// pattern of dedicating a subset of cluster nodes to management traffic so
// REST/JMX-style polling never competes with the firing instances for the
// row-lock semaphore.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quartzgo/quartz/config"
	"github.com/quartzgo/quartz/internal/health"
	"github.com/quartzgo/quartz/internal/jobs"
	ctxlog "github.com/quartzgo/quartz/internal/log"
	"github.com/quartzgo/quartz/internal/metrics"
	"github.com/quartzgo/quartz/internal/scheduler"
	"github.com/quartzgo/quartz/internal/store/postgres"
	httptransport "github.com/quartzgo/quartz/internal/transport/http"
	"github.com/quartzgo/quartz/internal/transport/http/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if !cfg.JobStoreClustered {
		log.Fatal("cmd/server requires JOB_STORE_IS_CLUSTERED=true (it shares a store with cmd/scheduler instances)")
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())
	instanceID := cfg.InstanceID + "-admin"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	store := postgres.New(pool, instanceID)

	sched := scheduler.New(scheduler.Config{
		InstanceID:       instanceID,
		InstanceName:     cfg.InstanceName,
		ThreadCount:      1,
		MisfireThreshold: time.Duration(cfg.JobStoreMisfireThresholdMs) * time.Millisecond,
		IdleWaitTime:     time.Duration(cfg.JobStoreIdleWaitTimeMs) * time.Millisecond,
		ClusterCheckin:   time.Duration(cfg.JobStoreClusterCheckinMs) * time.Millisecond,
		DbRetryInterval:  time.Duration(cfg.JobStoreDbRetryIntervalMs) * time.Millisecond,
	}, store, jobs.Factory(logger), logger)

	// Start, then immediately stand by: this registers the instance in
	// SCHEDULER_STATE (so the cluster manager's failover scan knows about
	// it) without ever acquiring a trigger.
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("scheduler start: %v", err)
	}
	if err := sched.Standby(ctx); err != nil {
		log.Fatalf("scheduler standby: %v", err)
	}

	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := &http.Server{
		Addr:    ":" + cfg.AdminPort,
		Handler: buildAdminRouter(logger, store, sched, checker),
	}
	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("admin server started", "port", cfg.AdminPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Shutdown(shutdownCtx, false); err != nil {
		logger.Error("scheduler shutdown", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func buildAdminRouter(logger *slog.Logger, store *postgres.Store, sched *scheduler.Scheduler, checker *health.Checker) http.Handler {
	jobHandler := handler.NewJobHandler(store, logger)
	triggerHandler := handler.NewTriggerHandler(store, logger)
	schedHandler := handler.NewSchedulerHandler(sched, logger)
	healthHandler := handler.NewHealthHandler(checker)
	return httptransport.NewRouter(logger, jobHandler, triggerHandler, schedHandler, healthHandler)
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
