package recommendation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recommendation_service",
		Subsystem: "upstream",
		Name:      "call_duration_seconds",
		Help:      "Latency of upstream calls made while building a recommendation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream"})

	upstreamFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recommendation_service",
		Subsystem: "upstream",
		Name:      "failures_total",
		Help:      "Failed upstream calls, labeled by upstream.",
	}, []string{"upstream"})

	recommendationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recommendation_service",
		Subsystem: "engine",
		Name:      "recommendations_total",
		Help:      "Recommendation requests, labeled by outcome.",
	}, []string{"outcome"})

	dispatchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recommendation_service",
		Subsystem: "notification",
		Name:      "dispatches_total",
		Help:      "Background notification dispatches, labeled by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(upstreamLatency, upstreamFailures, recommendationsCounter, dispatchCounter)
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func observeUpstream(upstream string, elapsed time.Duration, err error) {
	upstreamLatency.WithLabelValues(upstream).Observe(elapsed.Seconds())
	if err != nil {
		upstreamFailures.WithLabelValues(upstream).Inc()
	}
}

func recordRecommendation(ok bool) {
	recommendationsCounter.WithLabelValues(outcome(ok)).Inc()
}

func recordDispatch(ok bool) {
	dispatchCounter.WithLabelValues(outcome(ok)).Inc()
}
