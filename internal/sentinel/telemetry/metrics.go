package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricLoginAttempts   = "sentinel_login_attempts_total"
	MetricSecurityEvents  = "sentinel_security_events_total"
	MetricThreatsDetected = "sentinel_threats_detected_total"
	MetricSLABreaches     = "sentinel_sla_breaches_total"
	MetricCheckDuration   = "sentinel_security_check_duration_seconds"
)

// Login outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeInactive = "inactive"
	OutcomeError    = "error"
)

// Metrics mirrors the engine's counters into Prometheus collectors. All
// methods are safe on a nil receiver so tests can run without a registry.
type Metrics struct {
	loginAttempts   *prometheus.CounterVec
	securityEvents  *prometheus.CounterVec
	threatsDetected *prometheus.CounterVec
	slaBreaches     prometheus.Counter
	checkDuration   prometheus.Histogram
}

// NewMetrics creates all collectors. They are not registered; call Register
// with the process registry.
func NewMetrics() *Metrics {
	return &Metrics{
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricLoginAttempts,
				Help: "Total number of authentication attempts by outcome",
			},
			[]string{"outcome"},
		),
		securityEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSecurityEvents,
				Help: "Total number of recorded security events by type and severity",
			},
			[]string{"event_type", "severity"},
		),
		threatsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricThreatsDetected,
				Help: "Total number of threat detections by threat type",
			},
			[]string{"threat_type"},
		),
		slaBreaches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSLABreaches,
				Help: "Total number of security-check latency samples above the SLA threshold",
			},
		),
		checkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricCheckDuration,
				Help:    "Security-check overhead duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
		),
	}
}

// Register registers all collectors with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.loginAttempts,
		m.securityEvents,
		m.threatsDetected,
		m.slaBreaches,
		m.checkDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) IncLoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncSecurityEvent(eventType, severity string) {
	if m == nil {
		return
	}
	m.securityEvents.WithLabelValues(eventType, severity).Inc()
}

func (m *Metrics) IncThreat(threatType string) {
	if m == nil {
		return
	}
	m.threatsDetected.WithLabelValues(threatType).Inc()
}

func (m *Metrics) IncSLABreach() {
	if m == nil {
		return
	}
	m.slaBreaches.Inc()
}

func (m *Metrics) ObserveCheckDuration(seconds float64) {
	if m == nil {
		return
	}
	m.checkDuration.Observe(seconds)
}
