package metrics

import "github.com/prometheus/client_golang/prometheus"

// FlowMetrics exposes counters/histograms for the webhook and conversation flows.
type FlowMetrics struct {
	inboundTotal    *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	duplicateTotal  prometheus.Counter
	droppedTotal    *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
}

// NewFlowMetrics registers the collectors on reg, or the default registerer when nil.
func NewFlowMetrics(reg prometheus.Registerer) *FlowMetrics {
	m := &FlowMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbot",
			Subsystem: "whatsapp",
			Name:      "inbound_events_total",
			Help:      "Total inbound WhatsApp events by kind and outcome",
		}, []string{"kind", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbot",
			Subsystem: "whatsapp",
			Name:      "outbound_messages_total",
			Help:      "Total outbound WhatsApp messages by type and outcome",
		}, []string{"type", "status"}),
		duplicateTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartbot",
			Subsystem: "whatsapp",
			Name:      "duplicate_events_total",
			Help:      "Inbound deliveries suppressed as duplicates",
		}),
		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbot",
			Subsystem: "dispatcher",
			Name:      "dropped_events_total",
			Help:      "Inbound events dropped before processing",
		}, []string{"reason"}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartbot",
			Subsystem: "conversation",
			Name:      "transitions_total",
			Help:      "Conversation state transitions by resulting flow and step",
		}, []string{"flow", "step"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "smartbot",
			Subsystem: "whatsapp",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of WhatsApp webhook acknowledgment",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.duplicateTotal, m.droppedTotal, m.transitionTotal, m.webhookLatency)
	return m
}

func (m *FlowMetrics) ObserveInbound(kind, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *FlowMetrics) ObserveOutbound(msgType, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(msgType, status).Inc()
}

func (m *FlowMetrics) ObserveDuplicate() {
	if m == nil {
		return
	}
	m.duplicateTotal.Inc()
}

func (m *FlowMetrics) ObserveDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(reason).Inc()
}

func (m *FlowMetrics) ObserveTransition(flow, step string) {
	if m == nil {
		return
	}
	if step == "" {
		step = "none"
	}
	m.transitionTotal.WithLabelValues(flow, step).Inc()
}

func (m *FlowMetrics) ObserveWebhookLatency(method string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(method).Observe(seconds)
}
