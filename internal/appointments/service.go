// Package appointments implements the booking orchestration over the
// upstream practice-management provider: patient find-or-register,
// appointment-type resolution, slot selection, booking, and cancellation.
// The gateway holds no appointment state of its own; every request is a
// fresh pass through the staged pipeline.
package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dentalops/booking-gateway/internal/nexhealth"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

// cancelWindowMonths bounds how far ahead the cancellation flow searches for
// the appointment to cancel.
const cancelWindowMonths = 5

// Upstream is the slice of the NexHealth client the orchestrator needs.
type Upstream interface {
	FindPatient(ctx context.Context, q nexhealth.PatientQuery) (*nexhealth.Patient, error)
	RegisterPatient(ctx context.Context, req nexhealth.RegisterPatientRequest) (*nexhealth.Patient, error)
	AppointmentTypes(ctx context.Context) ([]nexhealth.AppointmentType, error)
	AppointmentSlots(ctx context.Context, q nexhealth.SlotQuery) ([]nexhealth.SlotGroup, error)
	BookAppointment(ctx context.Context, req nexhealth.BookRequest) (*nexhealth.Appointment, error)
	PatientAppointments(ctx context.Context, patientID int64, start, end time.Time) ([]nexhealth.Appointment, error)
	CancelAppointment(ctx context.Context, id int64) (*nexhealth.Appointment, error)
}

// BookingRequest is an inbound booking submission.
type BookingRequest struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	Email             string `json:"email"`
	DateOfBirth       string `json:"date_of_birth"`
	PhoneNumber       string `json:"phone_number"`
	AppointmentTypeID int64  `json:"appointment_type_id"`
	ProviderID        int64  `json:"provider_id"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	OperatoryID       int64  `json:"operatory_id"`
	Note              string `json:"note"`
}

// BookingResult is the normalized outcome of a committed booking.
type BookingResult struct {
	Appointment *nexhealth.Appointment `json:"appointment"`
	Patient     *nexhealth.Patient     `json:"patient"`
	NewPatient  bool                   `json:"is_new_patient"`
}

// SlotSearchRequest asks for the nearest open slots to a preferred time.
type SlotSearchRequest struct {
	StartDate    string  `json:"start_date"`
	StartTime    string  `json:"start_time"`
	Days         int     `json:"days"`
	LocationIDs  []int64 `json:"lids"`
	ProviderIDs  []int64 `json:"pids"`
	OperatoryIDs []int64 `json:"operatory_id"`
}

// CancelRequest identifies the patient whose upcoming appointment should be
// cancelled; AppointmentTypeID narrows the choice when the patient has more
// than one booked.
type CancelRequest struct {
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	AppointmentTypeID int64  `json:"appointment_type_id"`
}

// Service runs the booking, slot-search, and cancellation workflows.
type Service struct {
	upstream          Upstream
	typeCache         *TypeCache
	locationID        int64
	defaultProviderID int64
	logger            *logging.Logger
	now               func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTypeCache enables the Redis-backed appointment-type cache.
func WithTypeCache(cache *TypeCache) Option {
	return func(s *Service) { s.typeCache = cache }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the booking orchestrator. defaultProviderID is the
// provider new patients are registered under when the clinic has not mapped
// one explicitly.
func NewService(upstream Upstream, locationID, defaultProviderID int64, logger *logging.Logger, opts ...Option) *Service {
	if upstream == nil {
		panic("appointments: upstream client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		upstream:          upstream,
		locationID:        locationID,
		defaultProviderID: defaultProviderID,
		logger:            logger,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Book walks the full pipeline: validate, resolve or register the patient,
// resolve the appointment type, validate the exact slot, then commit. Every
// stage short-circuits with a typed error; nothing is retried here.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	patient, isNew, err := s.resolvePatient(ctx, req)
	if err != nil {
		return nil, err
	}

	apptType, err := s.FindType(ctx, req.AppointmentTypeID, "")
	if err != nil {
		return nil, err
	}
	if apptType == nil {
		return nil, fmt.Errorf("%w: id %d", ErrTypeNotFound, req.AppointmentTypeID)
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, &ValidationError{Problems: []string{"start_time must be ISO-8601"}}
	}
	end, err := s.resolveEndTime(req.EndTime, start, apptType)
	if err != nil {
		return nil, err
	}

	if err := s.validateSlot(ctx, req.ProviderID, req.OperatoryID, start, end); err != nil {
		return nil, err
	}

	appt, err := s.upstream.BookAppointment(ctx, nexhealth.BookRequest{
		PatientID:    patient.ID,
		ProviderID:   req.ProviderID,
		OperatoryID:  req.OperatoryID,
		StartTime:    start.Format(time.RFC3339),
		EndTime:      end.Format(time.RFC3339),
		Note:         req.Note,
		IsNewPatient: isNew,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"patient_id", patient.ID,
		"provider_id", req.ProviderID,
		"start_time", req.StartTime,
		"is_new_patient", isNew,
	)
	return &BookingResult{Appointment: appt, Patient: patient, NewPatient: isNew}, nil
}

// SearchSlots flattens the lids×pids availability cross-product, applies the
// optional operatory filter, and returns the closest slots to the preferred
// time, nearest first.
func (s *Service) SearchSlots(ctx context.Context, req SlotSearchRequest) ([]CandidateSlot, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	reference, err := parseReference(req.StartDate, req.StartTime)
	if err != nil {
		return nil, &ValidationError{Problems: []string{"start_time must be HH:MM or HH:MM:SS"}}
	}

	groups, err := s.upstream.AppointmentSlots(ctx, nexhealth.SlotQuery{
		StartDate:   req.StartDate,
		Days:        req.Days,
		LocationIDs: req.LocationIDs,
		ProviderIDs: req.ProviderIDs,
	})
	if err != nil {
		return nil, err
	}

	candidates := flattenSlots(groups, req.OperatoryIDs)
	nearest := nearestSlots(candidates, reference, nearestLimit)
	s.logger.Info("slot search completed",
		"candidates", len(candidates),
		"returned", len(nearest),
		"reference", reference,
	)
	return nearest, nil
}

// Cancel resolves the patient, picks their matching upcoming appointment
// inside the bounded window, and flips it to cancelled upstream.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (*nexhealth.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	patient, err := s.upstream.FindPatient(ctx, nexhealth.PatientQuery{
		Email:     req.Email,
		Phone:     req.PhoneNumber,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	from := s.now()
	until := from.AddDate(0, cancelWindowMonths, 0)
	appts, err := s.upstream.PatientAppointments(ctx, patient.ID, from, until)
	if err != nil {
		return nil, err
	}

	target := selectCancellable(appts, req.AppointmentTypeID)
	if target == nil {
		return nil, ErrAppointmentNotFound
	}

	cancelled, err := s.upstream.CancelAppointment(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("appointment cancelled", "appointment_id", target.ID, "patient_id", patient.ID)
	return cancelled, nil
}

// Types returns the bookable appointment types, read through the cache when
// one is configured.
func (s *Service) Types(ctx context.Context) ([]nexhealth.AppointmentType, error) {
	if types, ok := s.typeCache.Get(ctx); ok {
		return types, nil
	}
	types, err := s.upstream.AppointmentTypes(ctx)
	if err != nil {
		return nil, err
	}
	s.typeCache.Set(ctx, types)
	return types, nil
}

// resolvePatient finds an existing patient by composite identity, or
// registers a fresh one under the default provider. Find always runs before
// create, so retrying an identical booking never duplicates the patient.
func (s *Service) resolvePatient(ctx context.Context, req BookingRequest) (*nexhealth.Patient, bool, error) {
	patient, err := s.upstream.FindPatient(ctx, nexhealth.PatientQuery{
		Email:     req.Email,
		Phone:     req.PhoneNumber,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, false, err
	}
	if patient != nil {
		return patient, false, nil
	}

	s.logger.Info("patient not found, registering", "email", req.Email)
	patient, err = s.upstream.RegisterPatient(ctx, nexhealth.RegisterPatientRequest{
		ProviderID:  s.defaultProviderID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return nil, false, err
	}
	if patient == nil || patient.ID == 0 {
		return nil, false, ErrRegistration
	}
	return patient, true, nil
}

// FindType resolves an appointment type by exact id or, when id is zero, by
// case-insensitive name. A miss returns (nil, nil) so callers can shape their
// own response.
func (s *Service) FindType(ctx context.Context, id int64, name string) (*nexhealth.AppointmentType, error) {
	types, err := s.Types(ctx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		if id != 0 && types[i].ID == id {
			return &types[i], nil
		}
		if id == 0 && name != "" && strings.EqualFold(types[i].Name, name) {
			return &types[i], nil
		}
	}
	return nil, nil
}

// resolveEndTime prefers the caller's explicit end time and otherwise derives
// it from the appointment type's duration.
func (s *Service) resolveEndTime(explicit string, start time.Time, apptType *nexhealth.AppointmentType) (time.Time, error) {
	if explicit != "" {
		end, err := time.Parse(time.RFC3339, explicit)
		if err != nil {
			return time.Time{}, &ValidationError{Problems: []string{"end_time must be ISO-8601"}}
		}
		return end, nil
	}
	if apptType.Minutes <= 0 {
		return time.Time{}, &ValidationError{Problems: []string{"end_time is required when the appointment type has no duration"}}
	}
	return start.Add(time.Duration(apptType.Minutes) * time.Minute), nil
}

// validateSlot restricts the availability query to the booking's provider,
// location, and day, then requires an exact start/end/operatory match.
func (s *Service) validateSlot(ctx context.Context, providerID, operatoryID int64, start, end time.Time) error {
	groups, err := s.upstream.AppointmentSlots(ctx, nexhealth.SlotQuery{
		StartDate:   start.Format("2006-01-02"),
		Days:        1,
		LocationIDs: []int64{s.locationID},
		ProviderIDs: []int64{providerID},
	})
	if err != nil {
		return err
	}
	_, err = matchExactSlot(groups, start, end, operatoryID)
	return err
}

// selectCancellable picks the first non-cancelled appointment matching the
// requested type, or simply the first upcoming one when no type was given.
func selectCancellable(appts []nexhealth.Appointment, typeID int64) *nexhealth.Appointment {
	for i := range appts {
		if appts[i].Cancelled {
			continue
		}
		if typeID != 0 && appts[i].AppointmentTypeID != typeID {
			continue
		}
		return &appts[i]
	}
	return nil
}

func parseReference(startDate, startTime string) (time.Time, error) {
	if startTime == "" {
		return time.Parse("2006-01-02", startDate)
	}
	layout := "2006-01-02T15:04"
	if len(startTime) == len("15:04:05") {
		layout = "2006-01-02T15:04:05"
	}
	return time.Parse(layout, startDate+"T"+startTime)
}
