// Package reminders runs the day-before reminder loop: every tick it finds
// tomorrow's confirmed, not-yet-reminded appointments and pings each patient.
package reminders

import (
	"context"
	"time"

	"github.com/mvconsultorios/turnos-api/internal/appointments"
	"github.com/mvconsultorios/turnos-api/internal/observability/metrics"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// ReminderSender delivers the reminder message for one appointment.
type ReminderSender interface {
	AppointmentReminder(ctx context.Context, appt appointments.Appointment) error
}

// Worker periodically sweeps for appointments due a reminder.
type Worker struct {
	repo     appointments.Repository
	sender   ReminderSender
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	loc      *time.Location
	interval time.Duration
	now      func() time.Time
}

// NewWorker creates a reminder worker. loc is the office timezone used to
// decide what "tomorrow" means.
func NewWorker(repo appointments.Repository, sender ReminderSender, loc *time.Location, logger *logging.Logger) *Worker {
	if repo == nil {
		panic("reminders: repository required")
	}
	if sender == nil {
		panic("reminders: sender required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		repo:     repo,
		sender:   sender,
		logger:   logger,
		loc:      loc,
		interval: time.Hour,
		now:      time.Now,
	}
}

// WithInterval overrides the sweep interval.
func (w *Worker) WithInterval(d time.Duration) *Worker {
	if d > 0 {
		w.interval = d
	}
	return w
}

// WithMetrics attaches booking metrics.
func (w *Worker) WithMetrics(m *metrics.BookingMetrics) *Worker {
	w.metrics = m
	return w
}

// WithClock overrides the clock; test hook.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Run sweeps immediately and then on every tick until the context ends.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep sends reminders for tomorrow's confirmed appointments. Each send is
// independent: a failure skips the mark so the next sweep retries it.
func (w *Worker) Sweep(ctx context.Context) {
	tomorrow := w.now().In(w.loc).AddDate(0, 0, 1).Format("2006-01-02")
	due, err := w.repo.DueReminders(ctx, tomorrow)
	if err != nil {
		w.logger.Error("reminder sweep fetch failed", "error", err, "date", tomorrow)
		return
	}
	for _, appt := range due {
		if err := w.sender.AppointmentReminder(ctx, appt); err != nil {
			w.logger.Warn("reminder send failed", "error", err, "appointment_id", appt.ID)
			continue
		}
		if err := w.repo.MarkReminderSent(ctx, appt.ID, w.now().UTC()); err != nil {
			w.logger.Error("reminder mark failed", "error", err, "appointment_id", appt.ID)
			continue
		}
		w.metrics.ObserveReminderSent()
		w.logger.Info("reminder sent", "appointment_id", appt.ID, "date", appt.Date, "time", appt.Time)
	}
}
