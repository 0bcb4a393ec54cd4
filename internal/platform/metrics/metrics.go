package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing, so services can run without instrumentation in tests.
type Metrics struct {
	VerificationsTotal   *prometheus.CounterVec
	VerificationDuration *prometheus.HistogramVec
	AuthorityCalls       *prometheus.CounterVec
	AuthorityLatency     prometheus.Histogram
	QuotaDecisions       *prometheus.CounterVec
	TrialsConsumed       prometheus.Counter
	ClientsCreated       prometheus.Counter
	ChatMessages         *prometheus.CounterVec
	ChatSendFailures     prometheus.Counter
	AuditPublishFailures prometheus.Counter
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New creates and registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostguard_verifications_total",
			Help: "Verification attempts by channel and terminal status",
		}, []string{"channel", "status"}),
		VerificationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hostguard_verification_duration_seconds",
			Help:    "End-to-end verification latency by channel",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"channel"}),
		AuthorityCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostguard_authority_calls_total",
			Help: "Identity authority lookups by result",
		}, []string{"result"}),
		AuthorityLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hostguard_authority_latency_seconds",
			Help:    "Token exchange plus PIN lookup latency",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10},
		}),
		QuotaDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostguard_quota_decisions_total",
			Help: "Quota gate decisions by kind",
		}, []string{"decision"}),
		TrialsConsumed: f.NewCounter(prometheus.CounterOpts{
			Name: "hostguard_trial_credits_consumed_total",
			Help: "Trial credits consumed by successful verifications",
		}),
		ClientsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "hostguard_clients_created_total",
			Help: "Canonical client records created",
		}),
		ChatMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hostguard_chat_messages_total",
			Help: "Inbound chat messages by detected intent",
		}, []string{"intent"}),
		ChatSendFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "hostguard_chat_send_failures_total",
			Help: "Outbound chat replies that failed to send",
		}),
		AuditPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "hostguard_audit_publish_failures_total",
			Help: "Audit events that could not be published",
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hostguard_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveVerification(channel, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(channel, status).Inc()
	m.VerificationDuration.WithLabelValues(channel).Observe(d.Seconds())
}

func (m *Metrics) ObserveAuthorityCall(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.AuthorityCalls.WithLabelValues(result).Inc()
	if d > 0 {
		m.AuthorityLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementQuotaDecision(decision string) {
	if m == nil {
		return
	}
	m.QuotaDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementTrialsConsumed() {
	if m == nil {
		return
	}
	m.TrialsConsumed.Inc()
}

func (m *Metrics) IncrementClientsCreated() {
	if m == nil {
		return
	}
	m.ClientsCreated.Inc()
}

func (m *Metrics) IncrementChatMessage(intent string) {
	if m == nil {
		return
	}
	m.ChatMessages.WithLabelValues(intent).Inc()
}

func (m *Metrics) IncrementChatSendFailures() {
	if m == nil {
		return
	}
	m.ChatSendFailures.Inc()
}

func (m *Metrics) IncrementAuditPublishFailures() {
	if m == nil {
		return
	}
	m.AuditPublishFailures.Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, statusClass(status)).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
