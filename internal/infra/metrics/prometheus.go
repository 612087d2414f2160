package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplingRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frame_sampler_runs_total",
		Help: "Total number of sampling runs, by outcome (ok or error kind)",
	}, []string{"outcome"})

	FramesReadTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frame_sampler_frames_read_total",
		Help: "Total number of source frames decoded",
	})

	FramesWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frame_sampler_frames_written_total",
		Help: "Total number of sampled frames written as images",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frame_sampler_stage_duration_seconds",
		Help:    "Duration of sampling and job pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frame_sampler_jobs_processed_total",
		Help: "Total number of queued jobs processed, by status",
	}, []string{"status"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frame_sampler_active_workers",
		Help: "Number of workers currently processing a job",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frame_sampler_retry_total",
		Help: "Total number of retryable job failures, by attempt",
	}, []string{"attempt"})
)
