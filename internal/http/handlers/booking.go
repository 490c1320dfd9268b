package handlers

import (
	"net/http"

	"github.com/dentalops/booking-gateway/internal/appointments"
	"github.com/dentalops/booking-gateway/internal/observability/metrics"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

// BookingHandler exposes the booking workflows over HTTP.
type BookingHandler struct {
	service *appointments.Service
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
}

// NewBookingHandler creates the booking endpoint handler.
func NewBookingHandler(service *appointments.Service, m *metrics.BookingMetrics, logger *logging.Logger) *BookingHandler {
	if service == nil {
		panic("handlers: appointments service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{service: service, metrics: m, logger: logger}
}

// Book handles POST /api/appointments/book requests.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req appointments.BookingRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	result, err := h.service.Book(r.Context(), req)
	if err != nil {
		h.metrics.ObserveBooking("failed")
		respondError(w, h.logger, err, "failed to book appointment")
		return
	}

	h.metrics.ObserveBooking("committed")
	if result.NewPatient {
		h.metrics.ObservePatientRegistered()
	}
	respondData(w, http.StatusCreated, "appointment booked", result, 1)
}

// SearchSlots handles POST /api/appointments/appointment_slots requests.
func (h *BookingHandler) SearchSlots(w http.ResponseWriter, r *http.Request) {
	var req appointments.SlotSearchRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	h.metrics.ObserveSlotSearch()
	slots, err := h.service.SearchSlots(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err, "failed to search appointment slots")
		return
	}

	respondData(w, http.StatusOK, "nearest available slots", slots, len(slots))
}

// Cancel handles POST /api/appointments/cancel_appointment requests.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req appointments.CancelRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	appt, err := h.service.Cancel(r.Context(), req)
	if err != nil {
		h.metrics.ObserveCancellation("failed")
		respondError(w, h.logger, err, "failed to cancel appointment")
		return
	}

	h.metrics.ObserveCancellation("cancelled")
	respondData(w, http.StatusOK, "appointment cancelled", appt, 1)
}

// Types handles GET /api/appointments/appointment-types requests.
func (h *BookingHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.Types(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list appointment types")
		return
	}

	respondData(w, http.StatusOK, "bookable appointment types", types, len(types))
}

// HealthCheck handles GET /health requests.
func (h *BookingHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, "ok", map[string]string{"status": "healthy"}, 0)
}
