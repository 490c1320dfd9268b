package appointments

import (
	"regexp"
	"strings"
	"time"
)

// Local validation runs before any upstream call so malformed requests are
// rejected without spending a network round-trip.
var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

func validDateOfBirth(dob string) bool {
	_, err := time.Parse("2006-01-02", dob)
	return err == nil
}

func (r *BookingRequest) validate() error {
	var problems []string

	if strings.TrimSpace(r.FirstName) == "" {
		problems = append(problems, "first_name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		problems = append(problems, "last_name is required")
	}
	switch {
	case strings.TrimSpace(r.Email) == "":
		problems = append(problems, "email is required")
	case !emailPattern.MatchString(r.Email):
		problems = append(problems, "email is malformed")
	}
	switch {
	case strings.TrimSpace(r.DateOfBirth) == "":
		problems = append(problems, "date_of_birth is required")
	case !validDateOfBirth(r.DateOfBirth):
		problems = append(problems, "date_of_birth must be YYYY-MM-DD")
	}
	switch {
	case strings.TrimSpace(r.PhoneNumber) == "":
		problems = append(problems, "phone_number is required")
	case !phonePattern.MatchString(r.PhoneNumber):
		problems = append(problems, "phone_number must be 10-15 digits")
	}
	if r.AppointmentTypeID == 0 {
		problems = append(problems, "appointment_type_id is required")
	}
	if r.ProviderID == 0 {
		problems = append(problems, "provider_id is required")
	}
	if strings.TrimSpace(r.StartTime) == "" {
		problems = append(problems, "start_time is required")
	} else if _, err := time.Parse(time.RFC3339, r.StartTime); err != nil {
		problems = append(problems, "start_time must be ISO-8601")
	}
	if r.EndTime != "" {
		if _, err := time.Parse(time.RFC3339, r.EndTime); err != nil {
			problems = append(problems, "end_time must be ISO-8601")
		}
	}
	if r.OperatoryID == 0 {
		problems = append(problems, "operatory_id is required")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (r *SlotSearchRequest) validate() error {
	var problems []string

	if strings.TrimSpace(r.StartDate) == "" {
		problems = append(problems, "start_date is required")
	} else if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
		problems = append(problems, "start_date must be YYYY-MM-DD")
	}
	if r.Days <= 0 {
		problems = append(problems, "days must be positive")
	}
	if len(r.LocationIDs) == 0 {
		problems = append(problems, "lids is required")
	}
	if len(r.ProviderIDs) == 0 {
		problems = append(problems, "pids is required")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (r *CancelRequest) validate() error {
	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.PhoneNumber) == "" &&
		strings.TrimSpace(r.FirstName) == "" && strings.TrimSpace(r.LastName) == "" {
		return &ValidationError{Problems: []string{"at least one of email, phone_number, first_name, last_name is required"}}
	}
	return nil
}
