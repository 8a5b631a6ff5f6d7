package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mvconsultorios/turnos-api/internal/catalog"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// Handler handles HTTP requests for the booking flow.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// ListSpecialties handles GET /specialties.
func (h *Handler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

// AvailabilityResponse is the payload for availability queries.
type AvailabilityResponse struct {
	SpecialtyID int      `json:"specialty_id"`
	Date        string   `json:"date"`
	Available   bool     `json:"available"`
	Slots       []string `json:"slots"`
}

// GetAvailability handles GET /specialties/{specialtyID}/availability?date=YYYY-MM-DD.
// Slots are the free ones: availability hours minus booked slots.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	specialtyID, ok := intParam(r, "specialtyID")
	if !ok {
		http.Error(w, "invalid specialty id", http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing date", http.StatusBadRequest)
		return
	}

	available, err := h.service.IsDateAvailable(r.Context(), specialtyID, date)
	if err != nil {
		h.logger.Error("availability query failed", "error", err, "specialty_id", specialtyID, "date", date)
		http.Error(w, "availability check failed", http.StatusBadGateway)
		return
	}
	slots := []string{}
	if available {
		slots, err = h.service.AvailableTimeSlots(r.Context(), specialtyID, date)
		if err != nil {
			h.logger.Error("slot query failed", "error", err, "specialty_id", specialtyID, "date", date)
			http.Error(w, "slot check failed", http.StatusBadGateway)
			return
		}
	}

	writeJSON(w, http.StatusOK, AvailabilityResponse{
		SpecialtyID: specialtyID,
		Date:        date,
		Available:   available,
		Slots:       slots,
	})
}

// Create handles POST /appointments.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// GetByID handles GET /appointments/{id}: the lookup patients use to check
// on a booking with the TURNO id from their confirmation message.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	appt, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// List handles GET /appointments with optional status, from and to filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		appts []Appointment
		err   error
	)
	switch {
	case q.Get("status") != "":
		status := Status(q.Get("status"))
		if !status.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		appts, err = h.service.FilterByStatus(r.Context(), status)
	case q.Get("from") != "" || q.Get("to") != "":
		from, to := q.Get("from"), q.Get("to")
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		appts, err = h.service.FilterByDateRange(r.Context(), from, to)
	default:
		appts, err = h.service.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// Search handles GET /appointments/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query", http.StatusBadRequest)
		return
	}
	appts, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// GetStats handles GET /appointments/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats failed", "error", err)
		http.Error(w, "stats failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ByPatient handles GET /patients/{phone}/appointments (self-lookup).
func (h *Handler) ByPatient(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")
	if phone == "" {
		http.Error(w, "missing phone", http.StatusBadRequest)
		return
	}
	appts, err := h.service.FindByPatient(r.Context(), phone)
	if err != nil {
		h.logger.Error("patient lookup failed", "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus handles PATCH /appointments/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	appt, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrDateUnavailable):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrSlotTaken), errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func intParam(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
