// Command scheduler runs one Quartz-Go scheduler instance: the acquire ->
// fire -> complete loop, its worker pool, the cluster manager, the admin
// HTTP surface, and the metrics server. Multiple instances may be pointed
// at the same Postgres database to form a cluster (config.Config.JobStoreClustered).
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quartzgo/quartz/config"
	"github.com/quartzgo/quartz/internal/health"
	"github.com/quartzgo/quartz/internal/jobs"
	"github.com/quartzgo/quartz/internal/listener"
	ctxlog "github.com/quartzgo/quartz/internal/log"
	"github.com/quartzgo/quartz/internal/metrics"
	"github.com/quartzgo/quartz/internal/repository"
	"github.com/quartzgo/quartz/internal/scheduler"
	"github.com/quartzgo/quartz/internal/store/memory"
	"github.com/quartzgo/quartz/internal/store/postgres"
	httptransport "github.com/quartzgo/quartz/internal/transport/http"
	"github.com/quartzgo/quartz/internal/transport/http/handler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())
	instanceID := resolveInstanceID(cfg.InstanceID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("job store: %v", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	sched := scheduler.New(scheduler.Config{
		InstanceID:       instanceID,
		InstanceName:     cfg.InstanceName,
		ThreadCount:      cfg.ThreadCount,
		MisfireThreshold: time.Duration(cfg.JobStoreMisfireThresholdMs) * time.Millisecond,
		IdleWaitTime:     time.Duration(cfg.JobStoreIdleWaitTimeMs) * time.Millisecond,
		BatchTimeWindow:  time.Duration(cfg.JobStoreBatchTimeWindowMs) * time.Millisecond,
		AcquireBatchSize: cfg.JobStoreAcquireBatchSize,
		ClusterCheckin:   time.Duration(cfg.JobStoreClusterCheckinMs) * time.Millisecond,
		DbRetryInterval:  time.Duration(cfg.JobStoreDbRetryIntervalMs) * time.Millisecond,
	}, store, jobs.Factory(logger), logger)

	sched.TriggerListeners.Add(listener.NewLoggingTriggerListener(logger), nil)
	sched.JobListeners.Add(listener.NewLoggingJobListener(logger), nil)
	sched.SchedulerListeners.Add(listener.NewLoggingSchedulerListener(logger))

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("scheduler start: %v", err)
	}

	if cfg.JobStoreClustered {
		cluster := scheduler.NewClusterManager(store, instanceID,
			time.Duration(cfg.JobStoreClusterCheckinMs)*time.Millisecond, logger)
		go cluster.Start(ctx)
	}

	var checker *health.Checker
	if pool != nil {
		checker = health.NewChecker(pool, logger, prometheus.DefaultRegisterer)
	}

	adminSrv := &http.Server{
		Addr:    ":" + cfg.AdminPort,
		Handler: buildAdminRouter(logger, store, sched, checker),
	}
	metricsSrv := metrics.NewServer(":" + cfg.MetricsPort)

	go func() {
		logger.Info("admin http surface started", "port", cfg.AdminPort)
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin http surface", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	logger.Info("scheduler instance started", "instance_id", instanceID, "instance_name", cfg.InstanceName, "clustered", cfg.JobStoreClustered)

	<-ctx.Done()
	stop()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Shutdown(shutdownCtx, true); err != nil {
		logger.Error("scheduler shutdown", "error", err)
	}
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin http surface shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("scheduler shut down")
}

// openStore picks the clustered Postgres store or the single-process
// in-memory store per cfg.JobStoreClustered, running schema migration for
// the former. The returned pool is nil for the in-memory store (there is no
// connection to close or health-check).
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, *pgxpool.Pool, error) {
	if !cfg.JobStoreClustered {
		return memory.New(), nil, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return postgres.New(pool, resolveInstanceID(cfg.InstanceID)), pool, nil
}

func buildAdminRouter(logger *slog.Logger, store repository.Store, sched *scheduler.Scheduler, checker *health.Checker) http.Handler {
	jobHandler := handler.NewJobHandler(store, logger)
	triggerHandler := handler.NewTriggerHandler(store, logger)
	schedHandler := handler.NewSchedulerHandler(sched, logger)
	healthHandler := handler.NewHealthHandler(checker)
	return httptransport.NewRouter(logger, jobHandler, triggerHandler, schedHandler, healthHandler)
}

// resolveInstanceID honors scheduler.instanceId=AUTO by deriving an id from
// the hostname plus a random suffix, mirroring Quartz's
// SimpleInstanceIdGenerator.
func resolveInstanceID(configured string) string {
	if configured != "AUTO" {
		return configured
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString())
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
