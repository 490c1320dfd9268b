package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dentalops/booking-gateway/internal/appointments"
	"github.com/dentalops/booking-gateway/internal/auth"
	"github.com/dentalops/booking-gateway/internal/nexhealth"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

// envelope is the uniform response body every endpoint returns. Code is true
// on success; Error carries the problem list on failure.
type envelope struct {
	Code        bool     `json:"code"`
	Description string   `json:"description"`
	Error       []string `json:"error"`
	Data        any      `json:"data"`
	Count       int      `json:"count"`
}

func respondJSON(w http.ResponseWriter, status int, env envelope) {
	if env.Error == nil {
		env.Error = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

func respondData(w http.ResponseWriter, status int, description string, data any, count int) {
	respondJSON(w, status, envelope{
		Code:        true,
		Description: description,
		Data:        data,
		Count:       count,
	})
}

func respondError(w http.ResponseWriter, logger *logging.Logger, err error, description string) {
	status, problems := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(description, "error", err, "status", status)
	} else {
		logger.Warn(description, "error", err, "status", status)
	}
	respondJSON(w, status, envelope{
		Code:        false,
		Description: description,
		Error:       problems,
	})
}

// classifyError maps workflow errors onto HTTP statuses. Upstream failures
// pass their original status through so callers see what the practice
// management API said.
func classifyError(err error) (int, []string) {
	var validation *appointments.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, validation.Problems
	}
	var authValidation *auth.ValidationError
	if errors.As(err, &authValidation) {
		return http.StatusBadRequest, authValidation.Problems
	}

	switch {
	case errors.Is(err, appointments.ErrTypeNotFound):
		return http.StatusBadRequest, []string{err.Error()}
	case errors.Is(err, appointments.ErrPatientNotFound),
		errors.Is(err, appointments.ErrAppointmentNotFound),
		errors.Is(err, appointments.ErrSlotNotFound):
		return http.StatusNotFound, []string{err.Error()}
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrPhoneTaken):
		return http.StatusConflict, []string{err.Error()}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, []string{err.Error()}
	case errors.Is(err, nexhealth.ErrAuthentication):
		return http.StatusInternalServerError, []string{"upstream authentication failed"}
	}

	var apiErr *nexhealth.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, []string{apiErr.Error()}
	}

	return http.StatusInternalServerError, []string{"internal server error"}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logger *logging.Logger, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		logger.Warn("failed to decode request body", "error", err)
		respondJSON(w, http.StatusBadRequest, envelope{
			Code:        false,
			Description: "invalid request body",
			Error:       []string{"request body must be valid JSON"},
		})
		return false
	}
	return true
}
