package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversational booking flow.
type ChatMetrics struct {
	inboundTotal   *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	processLatency *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinica360",
			Subsystem: "chat",
			Name:      "inbound_messages_total",
			Help:      "Total inbound chat messages processed",
		}, []string{"state", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinica360",
			Subsystem: "chat",
			Name:      "bookings_created_total",
			Help:      "Total bookings created through the chat flow",
		}, []string{"tenant"}),
		processLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinica360",
			Subsystem: "chat",
			Name:      "process_latency_seconds",
			Help:      "Latency of inbound message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.bookingsTotal, m.processLatency)
	return m
}

func (m *ChatMetrics) ObserveInbound(state, outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(state, outcome).Inc()
}

func (m *ChatMetrics) ObserveBookingCreated(tenantID string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(tenantID).Inc()
}

func (m *ChatMetrics) ObserveProcessLatency(state string, seconds float64) {
	if m == nil {
		return
	}
	m.processLatency.WithLabelValues(state).Observe(seconds)
}

// ReminderMetrics exposes counters for dispatcher sweeps.
type ReminderMetrics struct {
	sweepTotal    prometheus.Counter
	outcomesTotal *prometheus.CounterVec
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		sweepTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinica360",
			Subsystem: "reminders",
			Name:      "sweeps_total",
			Help:      "Total reminder sweeps executed",
		}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinica360",
			Subsystem: "reminders",
			Name:      "outcomes_total",
			Help:      "Reminder processing outcomes per sweep",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sweepTotal, m.outcomesTotal)
	return m
}

func (m *ReminderMetrics) ObserveSweep() {
	if m == nil {
		return
	}
	m.sweepTotal.Inc()
}

func (m *ReminderMetrics) ObserveOutcome(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.outcomesTotal.WithLabelValues(outcome).Add(float64(count))
}

// CacheMetrics exposes counters for the tiered cache facade.
type CacheMetrics struct {
	opsTotal *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinica360",
			Subsystem: "cache",
			Name:      "ops_total",
			Help:      "Cache operations per tier and outcome",
		}, []string{"op", "tier", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.opsTotal)
	return m
}

func (m *CacheMetrics) ObserveOp(op, tier, outcome string) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(op, tier, outcome).Inc()
}
