package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dentalops/booking-gateway/internal/appointments"
	"github.com/dentalops/booking-gateway/internal/nexhealth"
	"github.com/dentalops/booking-gateway/internal/observability/metrics"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

type stubUpstream struct {
	patient      *nexhealth.Patient
	registered   *nexhealth.Patient
	types        []nexhealth.AppointmentType
	slots        []nexhealth.SlotGroup
	booked       *nexhealth.Appointment
	appointments []nexhealth.Appointment
	cancelled    *nexhealth.Appointment
	slotsErr     error
}

func (s *stubUpstream) FindPatient(context.Context, nexhealth.PatientQuery) (*nexhealth.Patient, error) {
	return s.patient, nil
}

func (s *stubUpstream) RegisterPatient(context.Context, nexhealth.RegisterPatientRequest) (*nexhealth.Patient, error) {
	return s.registered, nil
}

func (s *stubUpstream) AppointmentTypes(context.Context) ([]nexhealth.AppointmentType, error) {
	return s.types, nil
}

func (s *stubUpstream) AppointmentSlots(context.Context, nexhealth.SlotQuery) ([]nexhealth.SlotGroup, error) {
	return s.slots, s.slotsErr
}

func (s *stubUpstream) BookAppointment(context.Context, nexhealth.BookRequest) (*nexhealth.Appointment, error) {
	return s.booked, nil
}

func (s *stubUpstream) PatientAppointments(context.Context, int64, time.Time, time.Time) ([]nexhealth.Appointment, error) {
	return s.appointments, nil
}

func (s *stubUpstream) CancelAppointment(context.Context, int64) (*nexhealth.Appointment, error) {
	return s.cancelled, nil
}

func newBookingHandler(up *stubUpstream) *BookingHandler {
	svc := appointments.NewService(up, 331158957, 339157019, logging.Nop())
	m := metrics.NewBookingMetrics(prometheus.NewRegistry())
	return NewBookingHandler(svc, m, logging.Nop())
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func bookableSlot(start string) []nexhealth.SlotGroup {
	st, _ := time.Parse(time.RFC3339, start)
	return []nexhealth.SlotGroup{{
		LocationID: 331158957,
		ProviderID: 339157019,
		Slots:      []nexhealth.Slot{{Time: st, EndTime: st.Add(30 * time.Minute), OperatoryID: 7}},
	}}
}

func bookingPayload() map[string]any {
	return map[string]any{
		"first_name":          "Jane",
		"last_name":           "Doe",
		"email":               "jane.doe@example.com",
		"date_of_birth":       "1990-04-12",
		"phone_number":        "5551234567",
		"appointment_type_id": 42,
		"provider_id":         339157019,
		"start_time":          "2024-06-01T09:00:00Z",
		"end_time":            "2024-06-01T09:30:00Z",
		"operatory_id":        7,
	}
}

func TestBookSuccessEnvelope(t *testing.T) {
	h := newBookingHandler(&stubUpstream{
		patient: &nexhealth.Patient{ID: 101},
		types:   []nexhealth.AppointmentType{{ID: 42, Name: "Cleaning", Minutes: 30}},
		slots:   bookableSlot("2024-06-01T09:00:00Z"),
		booked:  &nexhealth.Appointment{ID: 900, PatientID: 101},
	})

	rec := postJSON(t, h.Book, "/api/appointments/book", bookingPayload())

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected 201: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Code {
		t.Errorf("envelope code = false on success")
	}
	if env.Count != 1 || len(env.Error) != 0 {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestBookValidationEnvelope(t *testing.T) {
	h := newBookingHandler(&stubUpstream{})

	payload := bookingPayload()
	payload["email"] = "nope"
	payload["phone_number"] = "123"
	rec := postJSON(t, h.Book, "/api/appointments/book", payload)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code {
		t.Error("envelope code = true on failure")
	}
	if len(env.Error) < 2 {
		t.Errorf("expected every validation problem reported, got %v", env.Error)
	}
}

func TestBookMalformedBody(t *testing.T) {
	h := newBookingHandler(&stubUpstream{})

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/book", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Book(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rec.Code)
	}
}

func TestBookUnavailableSlotIs404(t *testing.T) {
	h := newBookingHandler(&stubUpstream{
		patient: &nexhealth.Patient{ID: 101},
		types:   []nexhealth.AppointmentType{{ID: 42, Name: "Cleaning", Minutes: 30}},
		slots:   bookableSlot("2024-06-01T10:00:00Z"),
	})

	rec := postJSON(t, h.Book, "/api/appointments/book", bookingPayload())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", rec.Code)
	}
}

func TestBookUpstreamStatusPassesThrough(t *testing.T) {
	h := newBookingHandler(&stubUpstream{
		patient:  &nexhealth.Patient{ID: 101},
		types:    []nexhealth.AppointmentType{{ID: 42, Name: "Cleaning", Minutes: 30}},
		slotsErr: &nexhealth.APIError{StatusCode: http.StatusBadGateway, Body: "upstream down"},
	})

	rec := postJSON(t, h.Book, "/api/appointments/book", bookingPayload())

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, expected the upstream 502", rec.Code)
	}
}

func TestSearchSlotsCount(t *testing.T) {
	mk := func(start string) nexhealth.Slot {
		st, _ := time.Parse(time.RFC3339, start)
		return nexhealth.Slot{Time: st, EndTime: st.Add(30 * time.Minute), OperatoryID: 7}
	}
	h := newBookingHandler(&stubUpstream{
		slots: []nexhealth.SlotGroup{{
			LocationID: 331158957,
			ProviderID: 339157019,
			Slots: []nexhealth.Slot{
				mk("2024-06-01T08:00:00Z"),
				mk("2024-06-01T09:30:00Z"),
				mk("2024-06-01T11:00:00Z"),
				mk("2024-06-01T14:00:00Z"),
			},
		}},
	})

	rec := postJSON(t, h.SearchSlots, "/api/appointments/appointment_slots", map[string]any{
		"start_date": "2024-06-01",
		"start_time": "09:00",
		"days":       3,
		"lids":       []int64{331158957},
		"pids":       []int64{339157019},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Count != 3 {
		t.Errorf("count = %d, expected the nearest 3", env.Count)
	}
}

func TestCancelUnknownPatientIs404(t *testing.T) {
	h := newBookingHandler(&stubUpstream{})

	rec := postJSON(t, h.Cancel, "/api/appointments/cancel_appointment", map[string]any{
		"email": "ghost@example.com",
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code {
		t.Error("envelope code = true on failure")
	}
}

func TestTypesEndpoint(t *testing.T) {
	h := newBookingHandler(&stubUpstream{
		types: []nexhealth.AppointmentType{
			{ID: 42, Name: "Cleaning", Minutes: 30},
			{ID: 7, Name: "Whitening", Minutes: 60},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/appointment-types", nil)
	rec := httptest.NewRecorder()
	h.Types(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Count != 2 {
		t.Errorf("count = %d, expected 2", env.Count)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newBookingHandler(&stubUpstream{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
}
