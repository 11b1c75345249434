package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/exercisetracker/internal/events"
)

var (
	minutesLoggedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "stats",
		Name:      "minutes_logged_total",
		Help:      "Total exercise minutes logged, per username.",
	}, []string{"username"})

	usersRegisteredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "stats",
		Name:      "users_registered_total",
		Help:      "Number of user.created events observed.",
	})
)

func init() {
	prometheus.MustRegister(minutesLoggedCounter, usersRegisteredCounter)
}

// StatsHandler projects tracker events into Prometheus counters. Delivery is
// at-least-once, so already-seen aggregate ids are skipped.
type StatsHandler struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{seen: make(map[string]struct{})}
}

// Handle implements Handler. An event is marked seen only after it was
// counted, so a failed message still counts when redelivered.
func (h *StatsHandler) Handle(ctx context.Context, msg Message) error {
	key := msg.EventType + ":" + msg.AggregateID
	if msg.AggregateID != "" && h.isSeen(key) {
		return nil
	}

	switch msg.EventType {
	case "user.created":
		usersRegisteredCounter.Inc()
	case "exercise.logged":
		var event events.ExerciseLogged
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return fmt.Errorf("decode exercise.logged payload: %w", err)
		}
		minutesLoggedCounter.WithLabelValues(event.Username).Add(float64(event.DurationMin))
	default:
		// Unknown event types commit without effect.
		return nil
	}

	if msg.AggregateID != "" {
		h.markSeen(key)
	}
	return nil
}

func (h *StatsHandler) isSeen(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, dup := h.seen[key]
	return dup
}

func (h *StatsHandler) markSeen(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen[key] = struct{}{}
}
