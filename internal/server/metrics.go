package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks grading traffic for the /metrics endpoint.
type Metrics struct {
	Submissions    *prometheus.CounterVec
	GradingSeconds prometheus.Histogram
}

// NewMetrics registers the harness metrics on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stratus_submissions_total",
			Help: "Agent submissions graded, labeled by the stage they arrived in.",
		}, []string{"stage"}),
		GradingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stratus_grading_seconds",
			Help:    "Wall time spent grading one submission.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
