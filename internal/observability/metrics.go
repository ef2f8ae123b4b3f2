package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	evaluationCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "challenge_app",
		Subsystem: "engine",
		Name:      "evaluations_total",
		Help:      "KPI engine evaluations by outcome.",
	}, []string{"outcome"})
	evaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "challenge_app",
		Subsystem: "engine",
		Name:      "evaluation_duration_seconds",
		Help:      "Wall time of one KPI engine evaluation.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	skippedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "challenge_app",
		Subsystem: "engine",
		Name:      "skipped_records_total",
		Help:      "Malformed activity records quarantined by the engine.",
	})
	syncCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "challenge_app",
		Subsystem: "strava",
		Name:      "synced_activities_total",
		Help:      "Activities fetched from the tracker by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(evaluationCounter, evaluationDuration, skippedCounter, syncCounter)
}

// RecordEvaluation counts one engine run and its duration.
func RecordEvaluation(outcome string, elapsed time.Duration, skipped int) {
	evaluationCounter.WithLabelValues(outcome).Inc()
	evaluationDuration.Observe(elapsed.Seconds())
	if skipped > 0 {
		skippedCounter.Add(float64(skipped))
	}
}

// RecordSync counts upserted and refreshed activities from one sync run.
func RecordSync(inserted, updated int) {
	syncCounter.WithLabelValues("inserted").Add(float64(inserted))
	syncCounter.WithLabelValues("updated").Add(float64(updated))
}
