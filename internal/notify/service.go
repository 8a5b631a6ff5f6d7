package notify

import (
	"context"
	"fmt"

	"github.com/mvconsultorios/turnos-api/internal/appointments"
	"github.com/mvconsultorios/turnos-api/internal/catalog"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// Service sends booking notifications: WhatsApp to the office on a new
// reservation, WhatsApp plus optional email to the patient on confirmation,
// cancellation and reminders. It satisfies appointments.Notifier.
type Service struct {
	whatsapp WhatsAppSender
	email    EmailSender
	office   Office
	logger   *logging.Logger
}

// NewService creates a notification service. email may be nil when no
// provider is configured.
func NewService(whatsapp WhatsAppSender, email EmailSender, office Office, logger *logging.Logger) *Service {
	if whatsapp == nil {
		panic("notify: whatsapp sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{whatsapp: whatsapp, email: email, office: office, logger: logger}
}

// AppointmentCreated tells the office about a new reservation, including the
// reply commands used to confirm or cancel it.
func (s *Service) AppointmentCreated(ctx context.Context, appt appointments.Appointment) error {
	spec, err := s.specialty(appt)
	if err != nil {
		return err
	}
	msg := NewBookingMessage(appt, spec, s.office)
	if err := s.whatsapp.SendWhatsApp(ctx, s.office.Phone, msg); err != nil {
		return fmt.Errorf("notify: office whatsapp: %w", err)
	}
	s.logger.Info("new booking notification sent", "appointment_id", appt.ID)
	return nil
}

// AppointmentConfirmed tells the patient their turn is confirmed.
func (s *Service) AppointmentConfirmed(ctx context.Context, appt appointments.Appointment) error {
	spec, err := s.specialty(appt)
	if err != nil {
		return err
	}
	msg := ConfirmationMessage(appt, spec, s.office)
	if err := s.whatsapp.SendWhatsApp(ctx, appt.PatientPhone, msg); err != nil {
		return fmt.Errorf("notify: patient whatsapp: %w", err)
	}
	s.emailPatient(ctx, appt, "Turno confirmado - "+s.office.Name, msg)
	return nil
}

// AppointmentCancelled tells the patient their turn was cancelled.
func (s *Service) AppointmentCancelled(ctx context.Context, appt appointments.Appointment) error {
	spec, err := s.specialty(appt)
	if err != nil {
		return err
	}
	msg := CancellationMessage(appt, spec, s.office)
	if err := s.whatsapp.SendWhatsApp(ctx, appt.PatientPhone, msg); err != nil {
		return fmt.Errorf("notify: patient whatsapp: %w", err)
	}
	s.emailPatient(ctx, appt, "Turno cancelado - "+s.office.Name, msg)
	return nil
}

// AppointmentReminder nudges the patient the day before their turn.
func (s *Service) AppointmentReminder(ctx context.Context, appt appointments.Appointment) error {
	spec, err := s.specialty(appt)
	if err != nil {
		return err
	}
	msg := ReminderMessage(appt, spec, s.office)
	if err := s.whatsapp.SendWhatsApp(ctx, appt.PatientPhone, msg); err != nil {
		return fmt.Errorf("notify: patient whatsapp: %w", err)
	}
	return nil
}

// emailPatient mirrors the WhatsApp text by email when the patient left an
// address. Email is secondary; failures are logged and swallowed.
func (s *Service) emailPatient(ctx context.Context, appt appointments.Appointment, subject, body string) {
	if s.email == nil || appt.PatientEmail == "" {
		return
	}
	msg := EmailMessage{
		To:      appt.PatientEmail,
		ToName:  appt.PatientName,
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: patient email failed", "error", err, "appointment_id", appt.ID)
	}
}

func (s *Service) specialty(appt appointments.Appointment) (catalog.Specialty, error) {
	spec, ok := catalog.ByID(appt.SpecialtyID)
	if !ok {
		return catalog.Specialty{}, fmt.Errorf("notify: unknown specialty %d", appt.SpecialtyID)
	}
	return spec, nil
}

var _ appointments.Notifier = (*Service)(nil)
