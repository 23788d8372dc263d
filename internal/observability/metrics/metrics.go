package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metric names read back by the admin stats snapshot.
const (
	SubmissionsMetric = "barbearia_booking_submissions_total"
	StoreOpsMetric    = "barbearia_agenda_store_ops_total"
	LiveSessionsGauge = "barbearia_livesync_sessions"
	LivePushesMetric  = "barbearia_livesync_pushes_total"
)

// BookingMetrics exposes counters/histograms for booking flows.
type BookingMetrics struct {
	submissions   *prometheus.CounterVec
	optionQueries *prometheus.CounterVec
	submitLatency *prometheus.HistogramVec
	storeOps      *prometheus.CounterVec
	liveSessions  prometheus.Gauge
	livePushes    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbearia",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total booking submissions by outcome",
		}, []string{"outcome"}),
		optionQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbearia",
			Subsystem: "booking",
			Name:      "time_option_queries_total",
			Help:      "Total time option lookups by result",
		}, []string{"result"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "barbearia",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of the load-validate-save sequence",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbearia",
			Subsystem: "agenda",
			Name:      "store_ops_total",
			Help:      "Agenda store operations by op and status",
		}, []string{"op", "status"}),
		liveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "barbearia",
			Subsystem: "livesync",
			Name:      "sessions",
			Help:      "Open admin live-sync connections",
		}),
		livePushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbearia",
			Subsystem: "livesync",
			Name:      "pushes_total",
			Help:      "Refresh pushes sent to admin sessions",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.optionQueries, m.submitLatency, m.storeOps, m.liveSessions, m.livePushes)
	return m
}

func (m *BookingMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	m.submitLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *BookingMetrics) ObserveTimeOptions(result string) {
	if m == nil {
		return
	}
	m.optionQueries.WithLabelValues(result).Inc()
}

// ObserveStoreOp satisfies agenda.OpRecorder.
func (m *BookingMetrics) ObserveStoreOp(op, status string) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, status).Inc()
}

func (m *BookingMetrics) SessionOpened() {
	if m == nil {
		return
	}
	m.liveSessions.Inc()
}

func (m *BookingMetrics) SessionClosed() {
	if m == nil {
		return
	}
	m.liveSessions.Dec()
}

func (m *BookingMetrics) ObservePush(status string) {
	if m == nil {
		return
	}
	m.livePushes.WithLabelValues(status).Inc()
}
