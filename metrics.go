package idtoken

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a Processor reports to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	issued        *prometheus.CounterVec
	verifications *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg selects prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		issued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idtoken_tokens_issued_total",
				Help: "Total number of tokens issued",
			},
			[]string{"algorithm"},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idtoken_verifications_total",
				Help: "Total number of token verifications by outcome",
			},
			[]string{"outcome"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "idtoken_rate_limited_total",
				Help: "Total number of issuance requests rejected by the rate limiter",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.issued,
		m.verifications,
		m.rateLimited,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) tokenIssued(alg Algorithm) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(alg.String()).Inc()
}

// verification records an outcome label as produced by Kind.
func (m *Metrics) verification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) issuanceRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
