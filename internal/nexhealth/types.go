package nexhealth

import (
	"encoding/json"
	"time"
)

// envelope is the uniform NexHealth response wrapper. Every endpoint, success
// or failure, returns this shape with the payload under data.
type envelope struct {
	Code        bool            `json:"code"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
	Error       []string        `json:"error"`
	Count       int             `json:"count"`
}

// Bio carries the demographic block nested inside a patient record.
type Bio struct {
	DateOfBirth string `json:"date_of_birth,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	CellPhone   string `json:"cell_phone_number,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// Patient is a patient record as the upstream provider returns it. The
// provider is authoritative; nothing here is persisted locally.
type Patient struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	MiddleName     string     `json:"middle_name,omitempty"`
	LastName       string     `json:"last_name"`
	Name           string     `json:"name,omitempty"`
	Email          string     `json:"email,omitempty"`
	Bio            Bio        `json:"bio"`
	Inactive       bool       `json:"inactive,omitempty"`
	ForeignID      string     `json:"foreign_id,omitempty"`
	ForeignIDType  string     `json:"foreign_id_type,omitempty"`
	InstitutionID  *int64     `json:"institution_id,omitempty"`
	GuarantorID    *int64     `json:"guarantor_id,omitempty"`
	UnsubscribeSMS bool       `json:"unsubscribe_sms,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// AppointmentType is bookable reference data: a named visit kind with its
// duration in minutes.
type AppointmentType struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// Slot is one bookable interval inside a SlotGroup.
type Slot struct {
	Time        time.Time `json:"time"`
	EndTime     time.Time `json:"end_time"`
	OperatoryID int64     `json:"operatory_id"`
}

// SlotGroup is the per-location/per-provider grouping the appointment_slots
// endpoint returns.
type SlotGroup struct {
	LocationID int64  `json:"lid"`
	ProviderID int64  `json:"pid"`
	Slots      []Slot `json:"slots"`
}

// Appointment is the booked artifact upstream returns after a commit.
type Appointment struct {
	ID                int64      `json:"id"`
	PatientID         int64      `json:"patient_id"`
	ProviderID        int64      `json:"provider_id"`
	OperatoryID       int64      `json:"operatory_id,omitempty"`
	AppointmentTypeID int64      `json:"appointment_type_id,omitempty"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           time.Time  `json:"end_time"`
	Confirmed         bool       `json:"confirmed"`
	Cancelled         bool       `json:"cancelled"`
	Note              string     `json:"note,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// Provider is a clinician upstream can book against.
type Provider struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Operatory is a physical treatment room/chair a slot is bound to.
type Operatory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	LocationID int64  `json:"location_id,omitempty"`
	ForeignID  string `json:"foreign_id,omitempty"`
	Active     bool   `json:"active,omitempty"`
}

// PatientQuery is the composite identity used to look up an existing patient.
// Any combination of fields may be set; empty fields are omitted from the query.
type PatientQuery struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

// RegisterPatientRequest creates a new patient tied to a provider.
type RegisterPatientRequest struct {
	ProviderID  int64
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth string // YYYY-MM-DD
	PhoneNumber string
	Gender      string
}

// SlotQuery asks for open slots across a location/provider cross-product.
type SlotQuery struct {
	StartDate   string // YYYY-MM-DD
	Days        int
	LocationIDs []int64
	ProviderIDs []int64
}

// BookRequest commits an appointment against a concrete slot.
type BookRequest struct {
	PatientID    int64
	ProviderID   int64
	OperatoryID  int64
	StartTime    string // ISO-8601, as chosen from a prior availability query
	EndTime      string
	Note         string
	IsNewPatient bool
}

// OperatoryQuery filters the operatory listing.
type OperatoryQuery struct {
	Page         int
	PerPage      int
	SearchName   string
	ForeignID    string
	UpdatedSince string
}

type patientsData struct {
	Patients []Patient `json:"patients"`
}

type registerData struct {
	User Patient `json:"user"`
}

type typesData struct {
	AppointmentTypes []AppointmentType `json:"appointment_types"`
}

type appointmentsData struct {
	Appointments []Appointment `json:"appointments"`
}

type appointmentData struct {
	Appointment Appointment `json:"appt"`
}

type providersData struct {
	Providers []Provider `json:"providers"`
}

type operatoriesData struct {
	Operatories []Operatory `json:"operatories"`
}

type operatoryData struct {
	Operatory Operatory `json:"operatory"`
}

type tokenData struct {
	Token string `json:"token"`
}
