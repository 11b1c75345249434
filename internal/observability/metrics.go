package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	exercisePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "last_exercise_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise persisted to Postgres.",
	})
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "users_created_total",
		Help:      "Number of users successfully created.",
	})
	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "exercises_logged_total",
		Help:      "Number of exercises successfully logged.",
	})
)

func init() {
	prometheus.MustRegister(exercisePersistGauge, usersCreatedCounter, exercisesLoggedCounter)
}

// RecordUserCreated increments the user creation counter.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// RecordExercisePersisted updates the persistence watermark gauge and the
// logged-exercise counter.
func RecordExercisePersisted(ts time.Time) {
	exercisesLoggedCounter.Inc()
	if ts.IsZero() {
		return
	}
	exercisePersistGauge.Set(float64(ts.Unix()))
}
