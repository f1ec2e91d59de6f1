package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/quartzgo/quartz/internal/metrics"
	"github.com/quartzgo/quartz/internal/repository"
)

// ClusterManager runs the two cooperating activities a clustered store
// needs: a heartbeat checkin and a failover scan that recovers a dead
// peer's in-flight fires. Wired as its own goroutine from main, the same
// way the teacher wires its reaper.
type ClusterManager struct {
	store      repository.Store
	instanceID string
	interval   time.Duration
	logger     *slog.Logger

	lastCheckin time.Time
}

func NewClusterManager(store repository.Store, instanceID string, interval time.Duration, logger *slog.Logger) *ClusterManager {
	return &ClusterManager{
		store:      store,
		instanceID: instanceID,
		interval:   interval,
		logger:     logger.With("component", "cluster_manager"),
	}
}

func (c *ClusterManager) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("cluster manager started", "interval", c.interval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cluster manager shut down")
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// safetyMargin is how many checkin intervals a peer may go without checking
// in before it is treated as failed, so one slow checkin doesn't trigger a
// false failover.
const safetyMargin = 2

func (c *ClusterManager) tick(ctx context.Context) {
	now := time.Now()
	if !c.lastCheckin.IsZero() {
		metrics.ClusterCheckinAge.Set(now.Sub(c.lastCheckin).Seconds())
	}
	if err := c.store.CheckIn(ctx, c.instanceID); err != nil {
		c.logger.Error("checkin", "error", err)
		return
	}
	c.lastCheckin = now

	cutoff := time.Now().Add(-c.interval * safetyMargin)
	dead, err := c.store.FindFailedInstances(ctx, cutoff)
	if err != nil {
		c.logger.Error("find failed instances", "error", err)
		return
	}

	for _, id := range dead {
		if id == c.instanceID {
			continue
		}
		if err := c.store.RecoverFailedInstance(ctx, id); err != nil {
			c.logger.Error("recover failed instance", "instance_id", id, "error", err)
			continue
		}
		metrics.ClusterFailedInstancesTotal.Inc()
		c.logger.Warn("recovered failed instance", "instance_id", id)
	}
}
