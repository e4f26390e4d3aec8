package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_match_attempts_total",
		Help: "Total number of Match calls by outcome (none, direct, best_detour, error)",
	}, []string{"outcome"})

	matchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pool_match_duration_seconds",
		Help:    "Duration of a full Match call, from route lookup through commit",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
	}, []string{"outcome"})

	candidatesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pool_candidates_skipped_total",
		Help: "Candidates skipped during a scan, by reason",
	}, []string{"reason"})

	dispatcherQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pool_dispatcher_queue_depth",
		Help: "Number of tasks currently queued in the Task Dispatcher",
	})

	poolDepthGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pool_depth",
		Help: "Current pool membership counts by kind (waiting, forming, sealed)",
	}, []string{"kind"})
)

// RecordMatchOutcome records one Match call's outcome and latency.
func RecordMatchOutcome(outcome MatchKind, err error, duration time.Duration) {
	label := string(outcome)
	if err != nil {
		label = "error"
	}
	matchAttemptsTotal.WithLabelValues(label).Inc()
	matchDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordCandidateSkipped records one candidate rejected during a scan.
func RecordCandidateSkipped(reason string) {
	candidatesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordDispatcherQueueDepth reports the dispatcher's current backlog.
func RecordDispatcherQueueDepth(depth int) {
	dispatcherQueueDepth.Set(float64(depth))
}

// RecordPoolDepth reports the pool's current composition, typically called
// after ComputeStats.
func RecordPoolDepth(stats Stats) {
	poolDepthGauge.WithLabelValues("waiting").Set(float64(stats.WaitingPassengers))
	poolDepthGauge.WithLabelValues("forming").Set(float64(stats.FormingTrips))
	poolDepthGauge.WithLabelValues("sealed").Set(float64(stats.SealedTrips))
}
