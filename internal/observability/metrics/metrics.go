package metrics

import "github.com/prometheus/client_golang/prometheus"

// SurveyMetrics exposes counters/histograms for the survey flows.
type SurveyMetrics struct {
	inboundTotal      *prometheus.CounterVec
	outboundTotal     *prometheus.CounterVec
	responsesTotal    *prometheus.CounterVec
	broadcastDuration prometheus.Histogram
	webhookLatency    *prometheus.HistogramVec
}

func NewSurveyMetrics(reg prometheus.Registerer) *SurveyMetrics {
	m := &SurveyMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survey",
			Subsystem: "messaging",
			Name:      "inbound_replies_total",
			Help:      "Total inbound replies by handling status",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survey",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound sends by message kind",
		}, []string{"kind", "status"}),
		responsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "survey",
			Subsystem: "sheets",
			Name:      "responses_saved_total",
			Help:      "Response rows appended per category",
		}, []string{"category", "status"}),
		broadcastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "survey",
			Subsystem: "dispatcher",
			Name:      "broadcast_duration_seconds",
			Help:      "Duration of a full broadcast run",
			Buckets:   prometheus.DefBuckets,
		}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "survey",
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.responsesTotal, m.broadcastDuration, m.webhookLatency)
	return m
}

func (m *SurveyMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *SurveyMetrics) ObserveOutbound(kind, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

// ObserveResponseSaved counts one append attempt to a response worksheet.
func (m *SurveyMetrics) ObserveResponseSaved(category string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.responsesTotal.WithLabelValues(category, status).Inc()
}

func (m *SurveyMetrics) ObserveBroadcast(seconds float64) {
	if m == nil {
		return
	}
	m.broadcastDuration.Observe(seconds)
}

func (m *SurveyMetrics) ObserveWebhookLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(status).Observe(seconds)
}
