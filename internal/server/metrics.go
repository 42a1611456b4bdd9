package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizsnap_generations_total",
		Help: "Worksheet analysis calls by outcome.",
	}, []string{"status"})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quizsnap_generation_duration_seconds",
		Help:    "Wall time of worksheet analysis calls.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	submissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizsnap_submissions_total",
		Help: "Quiz attempts submitted.",
	})
)
