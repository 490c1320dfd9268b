package appointments

import (
	"context"
	"time"

	"github.com/dentalops/booking-gateway/internal/nexhealth"
)

// LatencyObserver records how long each upstream round-trip took.
type LatencyObserver interface {
	ObserveUpstreamLatency(operation string, seconds float64)
}

// InstrumentUpstream wraps an Upstream so every call reports its latency to
// the observer. A nil observer returns next unwrapped.
func InstrumentUpstream(next Upstream, obs LatencyObserver) Upstream {
	if obs == nil {
		return next
	}
	return &instrumentedUpstream{next: next, obs: obs}
}

type instrumentedUpstream struct {
	next Upstream
	obs  LatencyObserver
}

func (u *instrumentedUpstream) observe(operation string, start time.Time) {
	u.obs.ObserveUpstreamLatency(operation, time.Since(start).Seconds())
}

func (u *instrumentedUpstream) FindPatient(ctx context.Context, q nexhealth.PatientQuery) (*nexhealth.Patient, error) {
	defer u.observe("find_patient", time.Now())
	return u.next.FindPatient(ctx, q)
}

func (u *instrumentedUpstream) RegisterPatient(ctx context.Context, req nexhealth.RegisterPatientRequest) (*nexhealth.Patient, error) {
	defer u.observe("register_patient", time.Now())
	return u.next.RegisterPatient(ctx, req)
}

func (u *instrumentedUpstream) AppointmentTypes(ctx context.Context) ([]nexhealth.AppointmentType, error) {
	defer u.observe("appointment_types", time.Now())
	return u.next.AppointmentTypes(ctx)
}

func (u *instrumentedUpstream) AppointmentSlots(ctx context.Context, q nexhealth.SlotQuery) ([]nexhealth.SlotGroup, error) {
	defer u.observe("appointment_slots", time.Now())
	return u.next.AppointmentSlots(ctx, q)
}

func (u *instrumentedUpstream) BookAppointment(ctx context.Context, req nexhealth.BookRequest) (*nexhealth.Appointment, error) {
	defer u.observe("book_appointment", time.Now())
	return u.next.BookAppointment(ctx, req)
}

func (u *instrumentedUpstream) PatientAppointments(ctx context.Context, patientID int64, start, end time.Time) ([]nexhealth.Appointment, error) {
	defer u.observe("patient_appointments", time.Now())
	return u.next.PatientAppointments(ctx, patientID, start, end)
}

func (u *instrumentedUpstream) CancelAppointment(ctx context.Context, id int64) (*nexhealth.Appointment, error) {
	defer u.observe("cancel_appointment", time.Now())
	return u.next.CancelAppointment(ctx, id)
}
