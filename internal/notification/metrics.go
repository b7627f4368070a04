package notification

import "github.com/prometheus/client_golang/prometheus"

var (
	sendCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notification_service",
		Subsystem: "push",
		Name:      "sends_total",
		Help:      "Simulated push sends, labeled by outcome.",
	}, []string{"outcome"})

	publishCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notification_service",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Events published to the broker, labeled by event type and outcome.",
	}, []string{"event_type", "outcome"})

	deliveredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notification_service",
		Subsystem: "consumer",
		Name:      "deliveries_logged_total",
		Help:      "Notification events drained by the delivery consumer, labeled by event type.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(sendCounter, publishCounter, deliveredCounter)
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func recordSend(ok bool) {
	sendCounter.WithLabelValues(outcome(ok)).Inc()
}

func recordPublish(eventType string, ok bool) {
	publishCounter.WithLabelValues(eventType, outcome(ok)).Inc()
}
