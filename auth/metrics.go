package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts negotiation steps by scheme and result.
//
// All metrics use the "httpauth_" prefix. Methods handle a nil receiver,
// so a nil *Metrics disables collection.
type Metrics struct {
	// Selections counts scheme selections.
	// Labels: scheme, result=[success, failure]
	Selections *prometheus.CounterVec

	// Challenges counts challenges fed to an installed scheme.
	// Labels: scheme, result=[success, failure]
	Challenges *prometheus.CounterVec

	// Responses counts Authorization header values produced.
	// Labels: scheme, result=[success, failure]
	Responses *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with registerer.
// If registerer is nil, prometheus.DefaultRegisterer is used. Registering
// twice on the same registerer panics.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpauth_selections_total",
				Help: "Total authentication scheme selections by scheme and result",
			},
			[]string{"scheme", "result"},
		),
		Challenges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpauth_challenges_total",
				Help: "Total challenges processed by scheme and result",
			},
			[]string{"scheme", "result"},
		),
		Responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httpauth_responses_total",
				Help: "Total authorization responses generated by scheme and result",
			},
			[]string{"scheme", "result"},
		),
	}

	registerer.MustRegister(m.Selections, m.Challenges, m.Responses)
	return m
}

// RecordSelection records a selection. scheme is "none" when nothing was selected.
func (m *Metrics) RecordSelection(scheme string, err error) {
	if m == nil {
		return
	}
	m.Selections.WithLabelValues(schemeLabel(scheme), result(err)).Inc()
}

// RecordChallenge records a challenge processed by an installed scheme.
func (m *Metrics) RecordChallenge(scheme string, err error) {
	if m == nil {
		return
	}
	m.Challenges.WithLabelValues(schemeLabel(scheme), result(err)).Inc()
}

// RecordResponse records a header value produced, or a failure to produce one.
func (m *Metrics) RecordResponse(scheme string, err error) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(schemeLabel(scheme), result(err)).Inc()
}

func schemeLabel(scheme string) string {
	if scheme == "" {
		return "none"
	}
	return scheme
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
