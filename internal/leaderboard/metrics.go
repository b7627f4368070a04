package leaderboard

import "github.com/prometheus/client_golang/prometheus"

var (
	creditedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_service",
		Subsystem: "leaderboard",
		Name:      "credits_total",
		Help:      "Number of activity events credited to the weekly leaderboard.",
	})
	caloriesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_service",
		Subsystem: "leaderboard",
		Name:      "calories_credited_total",
		Help:      "Sum of calories credited to the weekly leaderboard.",
	})
)

func init() {
	prometheus.MustRegister(creditedCounter, caloriesCounter)
}

func recordCredited(calories float64) {
	creditedCounter.Inc()
	caloriesCounter.Add(calories)
}
