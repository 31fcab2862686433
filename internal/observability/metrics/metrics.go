package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the qualification flow.
// All observe methods are nil-safe so wiring stays optional in tests.
type ConversationMetrics struct {
	inboundTotal    *prometheus.CounterVec
	decisionsTotal  *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	escalationTotal *prometheus.CounterVec
	gatewayFailures prometheus.Counter
	sendFailures    prometheus.Counter
	modelLatency    prometheus.Histogram
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Total inbound customer messages",
		}, []string{"result"}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "conversation",
			Name:      "decisions_total",
			Help:      "Classified decisions by action",
		}, []string{"action"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		escalationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "conversation",
			Name:      "escalations_total",
			Help:      "Escalations by reason",
		}, []string{"reason"}),
		gatewayFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "conversation",
			Name:      "gateway_failures_total",
			Help:      "Model gateway failures",
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadline",
			Subsystem: "messaging",
			Name:      "send_failures_total",
			Help:      "Outbound SMS delivery failures",
		}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadline",
			Subsystem: "conversation",
			Name:      "model_latency_seconds",
			Help:      "Latency of model completion calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.inboundTotal,
		m.decisionsTotal,
		m.bookingsTotal,
		m.escalationTotal,
		m.gatewayFailures,
		m.sendFailures,
		m.modelLatency,
	)
	return m
}

func (m *ConversationMetrics) ObserveInbound(result string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(result).Inc()
}

func (m *ConversationMetrics) ObserveDecision(action string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(action).Inc()
}

func (m *ConversationMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *ConversationMetrics) ObserveEscalation(reason string) {
	if m == nil {
		return
	}
	m.escalationTotal.WithLabelValues(reason).Inc()
}

func (m *ConversationMetrics) ObserveGatewayFailure() {
	if m == nil {
		return
	}
	m.gatewayFailures.Inc()
}

func (m *ConversationMetrics) ObserveSendFailure() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

func (m *ConversationMetrics) ObserveModelLatency(seconds float64) {
	if m == nil {
		return
	}
	m.modelLatency.Observe(seconds)
}
