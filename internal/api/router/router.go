package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dentalops/booking-gateway/internal/auth"
	"github.com/dentalops/booking-gateway/internal/http/handlers"
	httpmiddleware "github.com/dentalops/booking-gateway/internal/http/middleware"
	"github.com/dentalops/booking-gateway/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *handlers.BookingHandler
	AuthHandler        *handlers.AuthHandler
	MetricsHandler     http.Handler
	JWTSecret          string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, signup, login)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.BookingHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Route("/api/auth", func(r chi.Router) {
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
			})
		}
	})

	// Booking endpoints (protected by clinic JWT when a secret is set).
	// Cancellation is additionally restricted to admin and staff: the front
	// desk owns schedule changes, dentists only book.
	r.Route("/api/appointments", func(appts chi.Router) {
		if cfg.JWTSecret != "" {
			appts.Use(httpmiddleware.ClinicJWT(cfg.JWTSecret))
		}
		appts.Post("/book", cfg.BookingHandler.Book)
		appts.Post("/appointment_slots", cfg.BookingHandler.SearchSlots)
		appts.Get("/appointment-types", cfg.BookingHandler.Types)
		if cfg.JWTSecret != "" {
			appts.With(httpmiddleware.RequireRole(auth.RoleAdmin, auth.RoleStaff)).
				Post("/cancel_appointment", cfg.BookingHandler.Cancel)
		} else {
			appts.Post("/cancel_appointment", cfg.BookingHandler.Cancel)
		}
	})

	return r
}
