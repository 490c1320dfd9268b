package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking workflows.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	cancellations      *prometheus.CounterVec
	slotSearches       prometheus.Counter
	upstreamLatency    *prometheus.HistogramVec
	patientsRegistered prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking attempts",
		}, []string{"status"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Total cancellation attempts",
		}, []string{"status"}),
		slotSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "booking",
			Name:      "slot_searches_total",
			Help:      "Total slot search requests",
		}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "booking",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of practice management API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		patientsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "booking",
			Name:      "patients_registered_total",
			Help:      "Total new patients registered during booking",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.cancellations, m.slotSearches, m.upstreamLatency, m.patientsRegistered)
	return m
}

func (m *BookingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveCancellation(status string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveSlotSearch() {
	if m == nil {
		return
	}
	m.slotSearches.Inc()
}

func (m *BookingMetrics) ObserveUpstreamLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObservePatientRegistered() {
	if m == nil {
		return
	}
	m.patientsRegistered.Inc()
}
