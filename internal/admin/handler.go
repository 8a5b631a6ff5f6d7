// Package admin serves the office-side endpoints: the passphrase login that
// issues an admin token, availability window management, the legacy snapshot
// import and the data wipe.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mvconsultorios/turnos-api/internal/availability"
	"github.com/mvconsultorios/turnos-api/internal/snapshot"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// OverrideStore manages availability windows.
type OverrideStore interface {
	Add(ctx context.Context, ov *availability.Override) error
	ListBySpecialty(ctx context.Context, specialtyID int) ([]availability.Override, error)
	ListAll(ctx context.Context) ([]availability.Override, error)
	Deactivate(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Wiper clears one data store; the wipe endpoint fans out over all of them.
type Wiper interface {
	DeleteAll(ctx context.Context) error
}

// Flusher drops cached state after a wipe.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Handler serves the admin endpoints.
type Handler struct {
	passphrase string
	jwtSecret  string
	tokenTTL   time.Duration
	overrides  OverrideStore
	wipers     []Wiper
	cache      Flusher
	importer   *snapshot.Importer
	logger     *logging.Logger
	now        func() time.Time
}

// Config wires the admin handler.
type Config struct {
	Passphrase string
	JWTSecret  string
	TokenTTL   time.Duration
	Overrides  OverrideStore
	Wipers     []Wiper
	Cache      Flusher
	Importer   *snapshot.Importer
	Logger     *logging.Logger
}

// NewHandler creates the admin handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	return &Handler{
		passphrase: cfg.Passphrase,
		jwtSecret:  cfg.JWTSecret,
		tokenTTL:   cfg.TokenTTL,
		overrides:  cfg.Overrides,
		wipers:     cfg.Wipers,
		cache:      cfg.Cache,
		importer:   cfg.Importer,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

type loginRequest struct {
	Passphrase string `json:"passphrase"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /admin/login: exchanges the office passphrase for a
// short-lived bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.passphrase == "" || h.jwtSecret == "" {
		http.Error(w, "admin login disabled", http.StatusServiceUnavailable)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Passphrase), []byte(h.passphrase)) != 1 {
		h.logger.Warn("admin login rejected")
		http.Error(w, "invalid passphrase", http.StatusUnauthorized)
		return
	}

	expires := h.now().Add(h.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(h.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.logger.Error("admin token signing failed", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	h.logger.Info("admin login succeeded", "expires_at", expires)
	writeJSON(w, http.StatusOK, loginResponse{Token: signed, ExpiresAt: expires})
}

type overrideRequest struct {
	SpecialtyID int    `json:"specialty_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// AddOverride handles POST /admin/availability.
func (h *Handler) AddOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SpecialtyID <= 0 || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		http.Error(w, "specialty_id, date, start_time and end_time are required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse(availability.DateLayout, req.Date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ov := &availability.Override{
		SpecialtyID: req.SpecialtyID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsActive:    true,
	}
	if err := h.overrides.Add(r.Context(), ov); err != nil {
		h.logger.Error("override add failed", "error", err)
		http.Error(w, "failed to add availability", http.StatusInternalServerError)
		return
	}
	h.logger.Info("availability override added", "id", ov.ID, "specialty_id", ov.SpecialtyID, "date", ov.Date)
	writeJSON(w, http.StatusCreated, ov)
}

// ListOverrides handles GET /admin/availability with an optional
// specialty_id filter.
func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	var (
		overrides []availability.Override
		err       error
	)
	if raw := r.URL.Query().Get("specialty_id"); raw != "" {
		id, convErr := strconv.Atoi(raw)
		if convErr != nil || id <= 0 {
			http.Error(w, "invalid specialty_id", http.StatusBadRequest)
			return
		}
		overrides, err = h.overrides.ListBySpecialty(r.Context(), id)
	} else {
		overrides, err = h.overrides.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("override list failed", "error", err)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}
	if overrides == nil {
		overrides = []availability.Override{}
	}
	writeJSON(w, http.StatusOK, overrides)
}

// DeactivateOverride handles PATCH /admin/availability/{id}/deactivate.
func (h *Handler) DeactivateOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.overrides.Deactivate(r.Context(), id)
	if err != nil {
		h.logger.Error("override deactivation failed", "error", err, "override_id", id)
		http.Error(w, "deactivation failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "availability window not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteOverride handles DELETE /admin/availability/{id}.
func (h *Handler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.overrides.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("override deletion failed", "error", err, "override_id", id)
		http.Error(w, "deletion failed", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "availability window not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportSnapshot handles POST /admin/import with the legacy snapshot JSON as
// the request body.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		http.Error(w, "import not configured", http.StatusServiceUnavailable)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	summary, err := h.importer.Import(r.Context(), body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// WipeData handles POST /admin/data/clear: empties every wired store and
// flushes the cache. Partial failures abort so the office notices.
func (h *Handler) WipeData(w http.ResponseWriter, r *http.Request) {
	for _, wiper := range h.wipers {
		if err := wiper.DeleteAll(r.Context()); err != nil {
			h.logger.Error("data wipe failed", "error", err)
			http.Error(w, "data wipe failed", http.StatusInternalServerError)
			return
		}
	}
	if h.cache != nil {
		if err := h.cache.Flush(r.Context()); err != nil {
			h.logger.Warn("cache flush after wipe failed", "error", err)
		}
	}
	h.logger.Info("all data wiped")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
