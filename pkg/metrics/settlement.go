package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records payment session and settlement outcomes.
type SettlementMetrics struct {
	sessions          *prometheus.CounterVec
	settled           *prometheus.CounterVec
	verifyFailures    *prometheus.CounterVec
	webhookRejects    prometheus.Counter
	deductionFailures *prometheus.CounterVec
	settleDuration    *prometheus.HistogramVec
}

// NewSettlementMetrics registers the settlement metrics on the provided
// registerer. A nil registerer yields a no-op collector for tests.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_sessions_total",
		Help: "Payment sessions created, by provider.",
	}, []string{"provider"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_settled_total",
		Help: "Orders settled to paid, by provider.",
	}, []string{"provider"})
	verifyFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verification_failures_total",
		Help: "Provider verifications that did not pass, by provider.",
	}, []string{"provider"})
	webhookRejects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_signature_rejects_total",
		Help: "Webhook deliveries rejected for a bad signature.",
	})
	deductionFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_deduction_failures_total",
		Help: "Inventory deductions that failed after settlement, by reason.",
	}, []string{"reason"})
	settleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of the settlement transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	reg.MustRegister(sessions, settled, verifyFailures, webhookRejects, deductionFailures, settleDuration)
	return &SettlementMetrics{
		sessions:          sessions,
		settled:           settled,
		verifyFailures:    verifyFailures,
		webhookRejects:    webhookRejects,
		deductionFailures: deductionFailures,
		settleDuration:    settleDuration,
	}
}

// IncSession increments the session counter for the named provider.
func (m *SettlementMetrics) IncSession(provider string) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncSettled increments the settled counter for the named provider.
func (m *SettlementMetrics) IncSettled(provider string) {
	if m == nil || m.settled == nil {
		return
	}
	m.settled.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncVerifyFailure increments the verification failure counter.
func (m *SettlementMetrics) IncVerifyFailure(provider string) {
	if m == nil || m.verifyFailures == nil {
		return
	}
	m.verifyFailures.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncWebhookReject increments the bad-signature counter.
func (m *SettlementMetrics) IncWebhookReject() {
	if m == nil || m.webhookRejects == nil {
		return
	}
	m.webhookRejects.Inc()
}

// IncDeductionFailure increments the deduction failure counter for a reason.
func (m *SettlementMetrics) IncDeductionFailure(reason string) {
	if m == nil || m.deductionFailures == nil {
		return
	}
	m.deductionFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveSettleDuration records how long a settlement transaction took.
func (m *SettlementMetrics) ObserveSettleDuration(provider string, d time.Duration) {
	if m == nil || m.settleDuration == nil {
		return
	}
	m.settleDuration.WithLabelValues(normalizeLabel(provider)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
