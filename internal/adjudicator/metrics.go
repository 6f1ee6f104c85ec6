package adjudicator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// adjudicationsTotal counts completed adjudications by final category
	adjudicationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjudicator_verdicts_total",
		Help: "Completed adjudications by risk category",
	}, []string{"category"})

	// adjudicationErrors counts failed adjudications by reason
	adjudicationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjudicator_errors_total",
		Help: "Failed adjudications by reason",
	}, []string{"reason"})

	// tieBreaksTotal counts neural tie-breaks applied in the MEDIUM band
	tieBreaksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjudicator_tie_breaks_total",
		Help: "Neural tie-breaks applied inside the ambiguous band",
	}, []string{"direction"})

	// riskScore tracks the distribution of final risk scores
	riskScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adjudicator_risk_score",
		Help:    "Final clipped risk score",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	// adjudicationDuration tracks end-to-end pipeline latency
	adjudicationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adjudicator_duration_seconds",
		Help:    "Adjudication pipeline duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	})
)
