package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casefile_batch_uploads_total",
			Help: "Files processed by the batch orchestrator by ticket status.",
		},
		[]string{"status"},
	)

	uploadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "casefile_batch_uploads_in_flight",
			Help: "Uploads currently held by batch workers.",
		},
	)

	uploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "casefile_batch_upload_duration_seconds",
			Help:    "Duration of individual batch file uploads.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casefile_batch_jobs_total",
			Help: "Completed batch jobs by outcome.",
		},
		[]string{"outcome"},
	)
)
