package notify

import (
	"fmt"
	"time"

	"github.com/mvconsultorios/turnos-api/internal/appointments"
	"github.com/mvconsultorios/turnos-api/internal/catalog"
)

// Office identifies the practice in outgoing messages.
type Office struct {
	Name    string
	Phone   string
	Address string
}

var spanishDays = []string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var spanishMonths = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatDateES renders an ISO date the way patients read it: "jueves, 12 de
// marzo de 2026". Malformed dates pass through unchanged.
func FormatDateES(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishDays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// NewBookingMessage is the WhatsApp text sent to the office when a booking
// comes in, including the reply commands the office uses to confirm or
// cancel.
func NewBookingMessage(appt appointments.Appointment, spec catalog.Specialty, office Office) string {
	dni := appointments.DNIFromNotes(appt.Notes)
	if dni == "" {
		dni = "No especificado"
	}
	patientID := appointments.PatientID(dni, appt.PatientPhone)

	return fmt.Sprintf(`🆕 NUEVA RESERVA DE TURNO - %s

Se ha registrado una nueva reserva:

👤 Paciente: %s
📱 Teléfono: %s
🆔 DNI: %s
🆔 ID Paciente: %s

📅 Fecha: %s
⏰ Horario: %s
🏥 Especialidad: %s
👨‍⚕️ Profesional: %s

🆔 ID de Turno: %s

Para confirmar el turno, responde con:
✅ CONFIRMAR %s

Para cancelar el turno, responde con:
❌ CANCELAR %s

💡 Ejemplo: "✅ CONFIRMAR TURNO-001"
💡 ID Paciente: %s (siempre el mismo para este paciente)`,
		office.Name,
		appt.PatientName, appt.PatientPhone, dni, patientID,
		FormatDateES(appt.Date), appt.Time, spec.Name, spec.Professional,
		appt.ID, appt.ID, appt.ID, patientID)
}

// ConfirmationMessage is sent to the patient when the office confirms.
func ConfirmationMessage(appt appointments.Appointment, spec catalog.Specialty, office Office) string {
	return fmt.Sprintf(`✅ TURNO CONFIRMADO - %s

Hola %s!

Tu turno ha sido confirmado exitosamente:

📅 Fecha: %s
⏰ Horario: %s
🏥 Especialidad: %s
👨‍⚕️ Profesional: %s

📍 Dirección: %s

Te enviaremos un recordatorio 24 horas antes de tu consulta.

Para cancelar o reprogramar, contáctanos al %s

¡Gracias por elegirnos!`,
		office.Name, appt.PatientName,
		FormatDateES(appt.Date), appt.Time, spec.Name, spec.Professional,
		office.Address, office.Phone)
}

// CancellationMessage is sent to the patient when the turn is cancelled.
func CancellationMessage(appt appointments.Appointment, spec catalog.Specialty, office Office) string {
	return fmt.Sprintf(`❌ CANCELACIÓN DE TURNO - %s

Hola %s!

Tu turno ha sido cancelado:

📅 Fecha: %s
⏰ Horario: %s
🏥 Especialidad: %s
👨‍⚕️ Profesional: %s

Para reprogramar tu turno, contáctanos al %s

Gracias por tu comprensión.`,
		office.Name, appt.PatientName,
		FormatDateES(appt.Date), appt.Time, spec.Name, spec.Professional,
		office.Phone)
}

// ReminderMessage is sent the day before a confirmed turn.
func ReminderMessage(appt appointments.Appointment, spec catalog.Specialty, office Office) string {
	return fmt.Sprintf(`🔔 RECORDATORIO - %s

Hola %s!

Te recordamos que tienes un turno programado:

📅 Fecha: %s
⏰ Horario: %s
🏥 Especialidad: %s
👨‍⚕️ Profesional: %s

📍 Dirección: %s

Por favor confirma tu asistencia respondiendo a este mensaje.

Para cancelar o reprogramar, contáctanos al %s`,
		office.Name, appt.PatientName,
		FormatDateES(appt.Date), appt.Time, spec.Name, spec.Professional,
		office.Address, office.Phone)
}
