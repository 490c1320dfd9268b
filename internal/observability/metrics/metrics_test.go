package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	m := NewBookingMetrics(prometheus.NewRegistry())
	m.ObserveBooking("committed")
	m.ObserveCancellation("not_found")
	m.ObserveSlotSearch()
	m.ObserveUpstreamLatency("book_appointment", 0.5)
	m.ObservePatientRegistered()
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("committed")
	m.ObserveCancellation("cancelled")
	m.ObserveSlotSearch()
	m.ObserveUpstreamLatency("find_patient", 0.1)
	m.ObservePatientRegistered()
}
