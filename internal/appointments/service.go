package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mvconsultorios/turnos-api/internal/availability"
	"github.com/mvconsultorios/turnos-api/internal/observability/metrics"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// PatientRegistry records a visit against the patient directory: an upsert
// keyed by dni or phone that bumps the appointment counter.
type PatientRegistry interface {
	RecordVisit(ctx context.Context, name, dni, phone, email string) error
}

// Notifier relays human-readable notifications about appointment events.
// Failures are logged by the service and never fail the triggering
// operation.
type Notifier interface {
	AppointmentCreated(ctx context.Context, appt Appointment) error
	AppointmentConfirmed(ctx context.Context, appt Appointment) error
	AppointmentCancelled(ctx context.Context, appt Appointment) error
}

// Service implements the booking operations: validated creation with
// conflict re-checking, the status state machine, listings and filters.
type Service struct {
	repo     Repository
	patients PatientRegistry
	resolver *availability.Resolver
	checker  *Checker
	ids      *TurnoIDs
	mirror   Mirror
	notifier Notifier
	metrics  *metrics.BookingMetrics
	now      func() time.Time
	logger   *logging.Logger
}

// ServiceConfig wires the service's collaborators. Repo and Resolver are
// required; everything else degrades gracefully when nil.
type ServiceConfig struct {
	Repo     Repository
	Patients PatientRegistry
	Resolver *availability.Resolver
	Checker  *Checker
	Mirror   Mirror
	Notifier Notifier
	Metrics  *metrics.BookingMetrics
	Logger   *logging.Logger
}

// NewService constructs a booking service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Repo == nil {
		panic("appointments: repository required")
	}
	if cfg.Resolver == nil {
		panic("appointments: resolver required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	checker := cfg.Checker
	if checker == nil {
		checker = NewChecker(cfg.Repo, cfg.Mirror, cfg.Resolver, logger)
	}
	return &Service{
		repo:     cfg.Repo,
		patients: cfg.Patients,
		resolver: cfg.Resolver,
		checker:  checker,
		ids:      NewTurnoIDs(cfg.Repo, logger),
		mirror:   cfg.Mirror,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		now:      time.Now,
		logger:   logger,
	}
}

// Create books an appointment. Validation and availability are checked
// before any write; the slot is re-checked for conflicts immediately before
// the insert. On persistence failure nothing is recorded locally. The
// patient upsert and all notifications are best-effort side effects of a
// successful insert.
//
// Two overlapping Create calls for the same slot can both pass the conflict
// check before either write lands; there is no cross-client locking. The
// race is documented and demonstrated by a test.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Appointment, error) {
	start := s.now()

	if err := req.Validate(); err != nil {
		s.metrics.ObserveBooking("rejected")
		return nil, err
	}

	available, err := s.resolver.IsDateAvailable(ctx, req.SpecialtyID, req.Date)
	if err != nil {
		return nil, err
	}
	if !available {
		s.metrics.ObserveBooking("unavailable")
		return nil, fmt.Errorf("%w: %s", ErrDateUnavailable, req.Date)
	}

	hours, err := s.resolver.HoursForDate(ctx, req.SpecialtyID, req.Date)
	if err != nil {
		return nil, err
	}
	if !containsHour(hours, req.Time) {
		s.metrics.ObserveBooking("unavailable")
		return nil, fmt.Errorf("%w: %s is not offered on %s", ErrDateUnavailable, req.Time, req.Date)
	}

	booked, err := s.checker.IsTimeSlotBooked(ctx, req.SpecialtyID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if booked {
		s.metrics.ObserveBooking("conflict")
		return nil, fmt.Errorf("%w: %s %s", ErrSlotTaken, req.Date, req.Time)
	}

	id, fallbackID := s.ids.Next(ctx)
	patientID := PatientID(req.DNI, req.PatientPhone)

	appt := &Appointment{
		ID:           id,
		SpecialtyID:  req.SpecialtyID,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		PatientEmail: req.PatientEmail,
		Date:         req.Date,
		Time:         req.Time,
		Status:       StatusPending,
		Notes:        buildNotes(req.DNI, patientID),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		s.metrics.ObserveBooking("error")
		return nil, err
	}

	if s.patients != nil {
		if err := s.patients.RecordVisit(ctx, req.PatientName, req.DNI, req.PatientPhone, req.PatientEmail); err != nil {
			s.logger.Error("booking: patient upsert failed", "error", err, "appointment_id", appt.ID)
		}
	}

	s.mirrorPut(ctx, *appt)

	if s.notifier != nil {
		if err := s.notifier.AppointmentCreated(ctx, *appt); err != nil {
			s.metrics.ObserveNotification("created", false)
			s.logger.Error("booking: notification failed", "error", err, "appointment_id", appt.ID)
		} else {
			s.metrics.ObserveNotification("created", true)
		}
	}

	s.metrics.ObserveBooking("created")
	s.metrics.ObserveBookingLatency(s.now().Sub(start).Seconds())
	s.logger.Info("appointment created",
		"id", appt.ID,
		"specialty_id", appt.SpecialtyID,
		"date", appt.Date,
		"time", appt.Time,
		"patient_id", patientID,
		"fallback_id", fallbackID,
	)
	return appt, nil
}

// UpdateStatus applies the status state machine. Transitions from terminal
// states fail with ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Appointment, error) {
	if !next.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(next)}
	}
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, next)
	}
	ok, err := s.repo.UpdateStatus(ctx, id, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	appt.Status = next
	s.mirrorPut(ctx, *appt)

	if s.notifier != nil {
		var nerr error
		switch next {
		case StatusConfirmed:
			nerr = s.notifier.AppointmentConfirmed(ctx, *appt)
		case StatusCancelled:
			nerr = s.notifier.AppointmentCancelled(ctx, *appt)
		}
		if nerr != nil {
			s.logger.Error("booking: status notification failed", "error", nerr, "appointment_id", id, "status", next)
		}
	}

	s.logger.Info("appointment status updated", "id", id, "status", next)
	return appt, nil
}

// GetByID fetches one appointment. The repository is authoritative; during a
// repository outage the cache mirror serves a possibly stale copy so patients
// can still look up their booking. A miss in both stays a miss.
func (s *Service) GetByID(ctx context.Context, id string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return appt, nil
	}
	if errors.Is(err, ErrNotFound) || s.mirror == nil {
		return nil, err
	}
	cached, cerr := s.mirror.Get(ctx, id)
	if cerr != nil || cached == nil {
		return nil, err
	}
	s.logger.Warn("booking: store unavailable, serving appointment from cache mirror", "error", err, "appointment_id", id)
	return cached, nil
}

// IsDateAvailable exposes the resolver decision.
func (s *Service) IsDateAvailable(ctx context.Context, specialtyID int, date string) (bool, error) {
	return s.resolver.IsDateAvailable(ctx, specialtyID, date)
}

// AvailableTimeSlots returns free slots for a date: the availability hours
// minus booked slots.
func (s *Service) AvailableTimeSlots(ctx context.Context, specialtyID int, date string) ([]string, error) {
	return s.checker.AvailableTimeSlots(ctx, specialtyID, date)
}

// IsTimeSlotBooked exposes the conflict check.
func (s *Service) IsTimeSlotBooked(ctx context.Context, specialtyID int, date, slot string) (bool, error) {
	return s.checker.IsTimeSlotBooked(ctx, specialtyID, date, slot)
}

// ListAll returns every appointment.
func (s *Service) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListAll(ctx)
}

// FindByPatient returns a patient's appointments by phone.
func (s *Service) FindByPatient(ctx context.Context, phone string) ([]Appointment, error) {
	return s.repo.FindByPatient(ctx, phone)
}

// Search matches name, phone or email case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]Appointment, error) {
	return s.repo.Search(ctx, query)
}

// Stats aggregates appointments by status.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.StatusCounts(ctx)
}

// FilterByStatus returns appointments in the given state.
func (s *Service) FilterByStatus(ctx context.Context, status Status) ([]Appointment, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []Appointment
	for _, appt := range all {
		if appt.Status == status {
			out = append(out, appt)
		}
	}
	return out, nil
}

// FilterByDateRange returns appointments with from <= date <= to. Passing
// the same value twice filters a single day.
func (s *Service) FilterByDateRange(ctx context.Context, from, to string) ([]Appointment, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []Appointment
	for _, appt := range all {
		if appt.Date >= from && appt.Date <= to {
			out = append(out, appt)
		}
	}
	return out, nil
}

func (s *Service) mirrorPut(ctx context.Context, appt Appointment) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Put(ctx, appt); err != nil {
		s.logger.Warn("booking: cache mirror write failed", "error", err, "appointment_id", appt.ID)
	}
}

func containsHour(hours []string, h string) bool {
	for _, v := range hours {
		if v == h {
			return true
		}
	}
	return false
}
