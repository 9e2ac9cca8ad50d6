package matching

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    matchRequestsTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_requests_total",
            Help: "Total number of match requests created",
        },
    )

    matchesConfirmedTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_matches_confirmed_total",
            Help: "Total number of confirmed matches",
        },
    )

    rejectionsTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_rejections_total",
            Help: "Total number of rejected candidates",
        },
    )

    queueRetriesTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "matching_queue_retries_total",
            Help: "Total number of re-enqueued queue items",
        },
    )

    matchScores = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name:    "matching_candidate_scores",
            Help:    "Distribution of composite candidate scores",
            Buckets: prometheus.LinearBuckets(0, 10, 11),
        },
    )

    queueProcessingSeconds = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name: "matching_queue_processing_seconds",
            Help: "Time spent processing one queue item",
        },
    )
)

func RecordRequestCreated() {
    matchRequestsTotal.Inc()
}

func RecordMatchConfirmed() {
    matchesConfirmedTotal.Inc()
}

func RecordMatchRejected() {
    rejectionsTotal.Inc()
}

func RecordQueueRetry() {
    queueRetriesTotal.Inc()
}

func RecordMatchScore(score int) {
    matchScores.Observe(float64(score))
}

func RecordQueueProcessing(duration time.Duration) {
    queueProcessingSeconds.Observe(duration.Seconds())
}
