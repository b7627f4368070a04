package activity

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "activity_service",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity record persisted.",
	})
	activityCreatedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_service",
		Subsystem: "persistence",
		Name:      "activities_created_total",
		Help:      "Number of activity records created, labeled by intensity.",
	}, []string{"intensity"})
)

func init() {
	prometheus.MustRegister(activityPersistGauge, activityCreatedCounter)
}

func recordPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

func recordCreated(intensity Intensity) {
	activityCreatedCounter.WithLabelValues(string(intensity)).Inc()
}
