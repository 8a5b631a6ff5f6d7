package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mvconsultorios/turnos-api/internal/admin"
	"github.com/mvconsultorios/turnos-api/internal/appointments"
	httpmiddleware "github.com/mvconsultorios/turnos-api/internal/http/middleware"
	"github.com/mvconsultorios/turnos-api/internal/patients"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	BookingsHandler    *appointments.Handler
	PatientsHandler    *patients.Handler
	AdminHandler       *admin.Handler
	MetricsHandler     http.Handler
	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// Requests/sec and burst for the public booking endpoint; zero disables
	// rate limiting.
	BookingRateLimit float64
	BookingBurst     int
}

// New creates the chi router with all routes configured. Public routes carry
// the booking flow; /admin is gated by the admin JWT.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: catalog, availability, booking, self-lookup.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.BookingsHandler != nil {
			public.Get("/specialties", cfg.BookingsHandler.ListSpecialties)
			public.Get("/specialties/{specialtyID}/availability", cfg.BookingsHandler.GetAvailability)
			if cfg.BookingRateLimit > 0 {
				public.With(httpmiddleware.RateLimit(cfg.BookingRateLimit, cfg.BookingBurst)).
					Post("/appointments", cfg.BookingsHandler.Create)
			} else {
				public.Post("/appointments", cfg.BookingsHandler.Create)
			}
			public.Get("/appointments/{id}", cfg.BookingsHandler.GetByID)
			public.Get("/patients/{phone}/appointments", cfg.BookingsHandler.ByPatient)
		}
		if cfg.AdminHandler != nil {
			public.Post("/admin/login", cfg.AdminHandler.Login)
		}
	})

	// Admin endpoints: office dashboard, directory, availability management.
	if cfg.AdminJWTSecret != "" {
		r.Route("/admin", func(ar chi.Router) {
			ar.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			if cfg.BookingsHandler != nil {
				ar.Get("/appointments", cfg.BookingsHandler.List)
				ar.Get("/appointments/search", cfg.BookingsHandler.Search)
				ar.Get("/appointments/stats", cfg.BookingsHandler.GetStats)
				ar.Patch("/appointments/{id}/status", cfg.BookingsHandler.UpdateStatus)
			}
			if cfg.PatientsHandler != nil {
				ar.Get("/patients", cfg.PatientsHandler.List)
				ar.Get("/patients/search", cfg.PatientsHandler.Search)
				ar.Get("/patients/stats", cfg.PatientsHandler.GetStats)
				ar.Get("/patients/frequent", cfg.PatientsHandler.MostFrequent)
				ar.Get("/patients/by-phone/{phone}", cfg.PatientsHandler.GetByPhone)
				ar.Patch("/patients/{id}/deactivate", cfg.PatientsHandler.Deactivate)
			}
			if cfg.AdminHandler != nil {
				ar.Post("/availability", cfg.AdminHandler.AddOverride)
				ar.Get("/availability", cfg.AdminHandler.ListOverrides)
				ar.Patch("/availability/{id}/deactivate", cfg.AdminHandler.DeactivateOverride)
				ar.Delete("/availability/{id}", cfg.AdminHandler.DeleteOverride)
				ar.Post("/import", cfg.AdminHandler.ImportSnapshot)
				ar.Post("/data/clear", cfg.AdminHandler.WipeData)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
