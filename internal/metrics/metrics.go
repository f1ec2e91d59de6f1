package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Acquire / fire pipeline

	AcquireLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quartz",
		Name:      "acquire_latency_seconds",
		Help:      "Time taken by one acquireNextTriggers call.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	TriggersAcquiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quartz",
		Name:      "triggers_acquired_total",
		Help:      "Total triggers acquired across all scheduling loop iterations.",
	})

	JobExecutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quartz",
		Name:      "job_execution_duration_seconds",
		Help:      "Duration of job.Execute calls.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300},
	}, []string{"outcome"})

	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quartz",
		Name:      "worker_jobs_in_flight",
		Help:      "Number of jobs currently being executed by the worker pool.",
	})

	JobsCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quartz",
		Name:      "jobs_completed_total",
		Help:      "Total job completions, by completion instruction.",
	}, []string{"instruction"})

	MisfiresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quartz",
		Name:      "misfires_total",
		Help:      "Total misfires detected, by resolved policy.",
	}, []string{"policy"})

	// Cluster manager

	ClusterCheckinAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quartz",
		Name:      "cluster_checkin_age_seconds",
		Help:      "Seconds since this instance last checked in.",
	})

	ClusterFailedInstancesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quartz",
		Name:      "cluster_failed_instances_recovered_total",
		Help:      "Total dead peer instances recovered by the cluster manager.",
	})

	// Admin HTTP surface

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quartz",
		Name:      "http_request_duration_seconds",
		Help:      "Admin HTTP surface request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		AcquireLatency,
		TriggersAcquiredTotal,
		JobExecutionDuration,
		JobsInFlight,
		JobsCompletedTotal,
		MisfiresTotal,
		ClusterCheckinAge,
		ClusterFailedInstancesTotal,
		HTTPRequestDuration,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
