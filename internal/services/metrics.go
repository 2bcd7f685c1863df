package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alfa_forge",
		Name:      "reminders_dispatched_total",
		Help:      "Reminders handed to the dispatcher, by kind.",
	}, []string{"kind"})

	remindersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alfa_forge",
		Name:      "reminders_failed_total",
		Help:      "Reminders whose dispatch returned an error, by kind.",
	}, []string{"kind"})

	streakRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "alfa_forge",
		Name:      "streak_recomputes_total",
		Help:      "Habit streak recalculations persisted.",
	})
)
