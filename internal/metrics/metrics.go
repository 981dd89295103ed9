package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ComputationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventpulse_computations_enqueued_total",
		Help: "Total number of event computations placed on the worker queue.",
	})

	ComputationsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventpulse_computations_completed_total",
		Help: "Total number of event reports computed.",
	})

	ComputationsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventpulse_computations_rejected_total",
		Help: "Total number of computations not served, labelled by reason.",
	}, []string{"reason"})

	ComputationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eventpulse_computation_duration_ms",
		Help:    "Time to compute one event report in milliseconds.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
	})

	RecordsExcluded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventpulse_records_excluded_total",
		Help: "Records left out of indicators, labelled by record kind and reason.",
	}, []string{"kind", "reason"})

	InvalidDateRanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventpulse_invalid_date_ranges_total",
		Help: "Reports computed for events whose opening date is not before the start date.",
	})

	SnapshotRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventpulse_snapshot_refreshes_total",
		Help: "Snapshot reload attempts, labelled by status.",
	}, []string{"status"})

	SnapshotRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "eventpulse_snapshot_records",
		Help: "Records held by the current snapshot, labelled by kind.",
	}, []string{"kind"})

	SnapshotLoadedAt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventpulse_snapshot_loaded_timestamp_seconds",
		Help: "Unix time the current snapshot was loaded.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventpulse_queue_utilization_ratio",
		Help: "Current computation queue utilization (0–1).",
	})
)
