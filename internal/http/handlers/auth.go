package handlers

import (
	"net/http"

	"github.com/dentalops/booking-gateway/internal/auth"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

// AuthHandler exposes clinic user signup and login.
type AuthHandler struct {
	service *auth.Service
	logger  *logging.Logger
}

// NewAuthHandler creates the auth endpoint handler.
func NewAuthHandler(service *auth.Service, logger *logging.Logger) *AuthHandler {
	if service == nil {
		panic("handlers: auth service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{service: service, logger: logger}
}

// Register handles POST /api/auth/register requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err, "failed to register user")
		return
	}

	respondData(w, http.StatusCreated, "user registered", user, 1)
}

// Login handles POST /api/auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		respondError(w, h.logger, err, "failed to log in")
		return
	}

	respondData(w, http.StatusOK, "login successful", result, 1)
}
