// Package metrics exposes Prometheus counters for confirmation sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "multisig"
	subsystem = "confirmation"
)

// Confirmation outcomes
const (
	ConfirmationAccepted = "accepted"
	ConfirmationInvalid  = "invalid"
	ConfirmationConflict = "conflict"
	ConfirmationIgnored  = "ignored"
)

// Request outcomes
const (
	RequestSent    = "sent"
	RequestSkipped = "skipped"
	RequestFailed  = "failed"
	RequestCooling = "cooldown"
)

// SessionMetrics records what confirmation sessions did.
type SessionMetrics struct {
	sessions            prometheus.Counter
	estimates           *prometheus.CounterVec
	confirmations       *prometheus.CounterVec
	requests            *prometheus.CounterVec
	submissions         *prometheus.CounterVec
	submissionDuration  prometheus.Histogram
	rejections          prometheus.Counter
	propagationFailures prometheus.Counter
}

// NewSessionMetrics creates the session metrics and registers them with registerer.
func NewSessionMetrics(registerer prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sessions_total",
			Help:      "Total number of confirmation sessions started",
		}),
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "estimates_total",
			Help:      "Total number of execution estimates by status",
		}, []string{"status"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "confirmations_total",
			Help:      "Total number of pushed confirmations by outcome",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of confirmation requests by outcome",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "submissions_total",
			Help:      "Total number of transaction submissions by status",
		}, []string{"status"}),
		submissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "submission_duration_seconds",
			Help:      "Duration of transaction submissions",
			Buckets:   prometheus.DefBuckets,
		}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rejections_total",
			Help:      "Total number of sessions ended by a rejection",
		}),
		propagationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "propagation_failures_total",
			Help:      "Total number of advisory notifications that could not be delivered",
		}),
	}
	registerer.MustRegister(
		m.sessions,
		m.estimates,
		m.confirmations,
		m.requests,
		m.submissions,
		m.submissionDuration,
		m.rejections,
		m.propagationFailures,
	)
	return m
}

// NewNoopSessionMetrics returns metrics that are not exported anywhere.
func NewNoopSessionMetrics() *SessionMetrics {
	return NewSessionMetrics(prometheus.NewRegistry())
}

func (m *SessionMetrics) SessionStarted() {
	m.sessions.Inc()
}

func (m *SessionMetrics) Estimate(err error) {
	m.estimates.WithLabelValues(status(err)).Inc()
}

func (m *SessionMetrics) Confirmation(outcome string) {
	m.confirmations.WithLabelValues(outcome).Inc()
}

func (m *SessionMetrics) Request(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

// Submission records the outcome of a submission that started at start.
func (m *SessionMetrics) Submission(start time.Time, err error) {
	m.submissionDuration.Observe(time.Since(start).Seconds())
	m.submissions.WithLabelValues(status(err)).Inc()
}

func (m *SessionMetrics) Rejected() {
	m.rejections.Inc()
}

func (m *SessionMetrics) PropagationFailed() {
	m.propagationFailures.Inc()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
