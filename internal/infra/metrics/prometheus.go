package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenquiz_uploads_processed_total",
		Help: "Total number of uploads processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screenquiz_stage_duration_seconds",
		Help:    "Duration of analysis pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	CandidateEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenquiz_candidate_events_total",
		Help: "Total number of candidate events synthesized, by type",
	}, []string{"type"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenquiz_frames_sampled_total",
		Help: "Total number of frame stills sampled across all uploads",
	})

	AttemptsScoredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenquiz_attempts_scored_total",
		Help: "Total number of click attempts scored, by verdict",
	}, []string{"verdict"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "screenquiz_active_workers",
		Help: "Number of currently active workers processing uploads",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenquiz_retry_total",
		Help: "Total number of upload retries",
	}, []string{"attempt"})
)
