package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records sync engine activity for the terminal's /metrics endpoint.
type SyncMetrics struct {
	runDuration *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	pendingLeft prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_run_duration_seconds",
		Help:    "Duration of sync engine drain passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"reason"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_submissions_total",
		Help: "Transaction submissions to the cloud authority by outcome.",
	}, []string{"outcome"})
	pendingLeft := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sync_pending_records",
		Help: "Records still awaiting cloud confirmation after the last pass.",
	})
	reg.MustRegister(runDuration, submissions, pendingLeft)
	return &SyncMetrics{
		runDuration: runDuration,
		submissions: submissions,
		pendingLeft: pendingLeft,
	}
}

// ObserveRun records the duration of one drain pass.
func (s *SyncMetrics) ObserveRun(reason string, duration time.Duration) {
	if s == nil || s.runDuration == nil {
		return
	}
	s.runDuration.WithLabelValues(normalizeLabel(reason)).Observe(duration.Seconds())
}

// IncSubmission counts one submission outcome (synced, failed, rejected).
func (s *SyncMetrics) IncSubmission(outcome string) {
	if s == nil || s.submissions == nil {
		return
	}
	s.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetPending reports how many records remain unconfirmed.
func (s *SyncMetrics) SetPending(count int) {
	if s == nil || s.pendingLeft == nil {
		return
	}
	s.pendingLeft.Set(float64(count))
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
